package game

// Slot is one addressable position in the creature registry. Slots are
// value records: they are copied in and out, never aliased, and are
// addressed only by index.
type Slot struct {
	Active        bool   `json:"active"`
	CreatureID    uint64 `json:"creature_id"`
	PosX          uint16 `json:"pos_x"`
	PosY          uint16 `json:"pos_y"`
	ThrowAttempts uint8  `json:"throw_attempts"`
	SpawnedAt     int64  `json:"spawned_at"`
}

// Registry is the fixed-capacity creature slot array. ActiveCount is
// redundant with the slots but kept in lockstep so the soft-cap check
// is O(1).
type Registry struct {
	Slots       [MaxSlots]Slot `json:"slots"`
	ActiveCount uint8          `json:"active_count"`
}

// activate writes a fresh creature into the slot and bumps the active
// count. The caller has already validated occupancy and the cap.
func (r *Registry) activate(index int, s Slot) error {
	next, err := addU8(r.ActiveCount, 1)
	if err != nil {
		return err
	}
	r.Slots[index] = s
	r.ActiveCount = next
	return nil
}

// clear resets the slot to empty. The count is clamped at zero: the
// redundant counter must never underflow even if a bug cleared an
// already-empty slot.
func (r *Registry) clear(index int) {
	r.Slots[index] = Slot{}
	if r.ActiveCount > 0 {
		r.ActiveCount--
	}
}
