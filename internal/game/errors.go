package game

import "errors"

// Precondition and arithmetic errors surfaced by game operations. All
// of them are rejected before any state mutation, so a caller that
// sees one can retry with corrected input against unchanged state.
var (
	ErrAlreadyInitialized = errors.New("game already initialized")
	ErrNotInitialized     = errors.New("game not initialized")
	ErrUnauthorized       = errors.New("only the authority may perform this operation")

	ErrInvalidBallTier  = errors.New("invalid ball tier")
	ErrInvalidCatchRate = errors.New("catch rate must be 0-100")
	ErrZeroPrice        = errors.New("ball price must be greater than zero")
	ErrInvalidMaxActive = errors.New("max active creatures must be between 1 and the slot count")

	ErrInvalidSlotIndex  = errors.New("invalid slot index")
	ErrSlotOccupied      = errors.New("slot is already occupied")
	ErrSlotNotActive     = errors.New("slot has no active creature")
	ErrMaxActiveReached  = errors.New("maximum active creatures reached")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrMaxAttempts       = errors.New("maximum throw attempts reached")

	ErrVaultFull         = errors.New("vault is full")
	ErrVaultEmpty        = errors.New("vault is empty")
	ErrInvalidAssetIndex = errors.New("invalid asset index")

	ErrInsufficientBalls   = errors.New("insufficient ball balance")
	ErrZeroQuantity        = errors.New("quantity must be greater than zero")
	ErrPurchaseExceedsMax  = errors.New("purchase exceeds per-call maximum")
	ErrInsufficientRevenue = errors.New("insufficient accrued revenue")

	ErrUnknownRequest   = errors.New("unknown randomness request")
	ErrAlreadyFulfilled = errors.New("randomness request already fulfilled")
	ErrNotReady         = errors.New("randomness not yet fulfilled")

	ErrMathOverflow = errors.New("arithmetic overflow")
)
