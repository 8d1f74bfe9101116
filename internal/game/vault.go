package game

// Vault is the bounded pool of collectible asset identifiers awardable
// on a catch. The first Count entries are distinct non-empty IDs;
// everything beyond is the empty string. Removal is swap-with-last, so
// iteration order carries no meaning.
type Vault struct {
	Assets  [MaxVaultSize]string `json:"assets"`
	Count   uint8                `json:"count"`
	MaxSize uint8                `json:"max_size"`
}

// NewVault returns an empty vault at full designed capacity.
func NewVault() Vault {
	return Vault{MaxSize: MaxVaultSize}
}

// Deposit appends an asset identifier.
func (v *Vault) Deposit(assetID string) error {
	if v.Count >= v.MaxSize {
		return ErrVaultFull
	}
	next, err := addU8(v.Count, 1)
	if err != nil {
		return err
	}
	v.Assets[v.Count] = assetID
	v.Count = next
	return nil
}

// Remove takes the asset at index out of the pool and returns it. The
// last live entry is swapped into the vacated position and the freed
// tail entry is cleared.
func (v *Vault) Remove(index int) (string, error) {
	if index < 0 || index >= int(v.Count) {
		return "", ErrInvalidAssetIndex
	}
	assetID := v.Assets[index]
	last := int(v.Count) - 1
	if index != last {
		v.Assets[index] = v.Assets[last]
	}
	v.Assets[last] = ""
	v.Count--
	return assetID, nil
}

// Items returns the live asset identifiers as a copy.
func (v *Vault) Items() []string {
	items := make([]string, v.Count)
	copy(items, v.Assets[:v.Count])
	return items
}
