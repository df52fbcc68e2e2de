package core

import (
	"encoding/json"

	"github.com/holiman/uint256"
)

// MaxAssets two bits per asset in a 256 bit word
const MaxAssets = 128

// UserConfiguration packed per asset flags.
// bit 2*id marks borrowing, bit 2*id+1 marks collateral.
type UserConfiguration struct {
	data uint256.Int
}

var (
	borrowingMask = func() *uint256.Int {
		m := new(uint256.Int)
		for i := uint(0); i < MaxAssets; i++ {
			m.Or(m, new(uint256.Int).Lsh(uint256.NewInt(1), 2*i))
		}
		return m
	}()
	collateralMask = new(uint256.Int).Lsh(borrowingMask, 1)
)

func (c *UserConfiguration) bit(pos uint) bool {
	v := new(uint256.Int).Rsh(&c.data, pos)
	return !v.And(v, uint256.NewInt(1)).IsZero()
}

func (c *UserConfiguration) set(pos uint, on bool) {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), pos)
	if on {
		c.data.Or(&c.data, mask)
		return
	}

	c.data.And(&c.data, mask.Not(mask))
}

func checkAssetID(id uint16) error {
	if id >= MaxAssets {
		return ErrInvalidArgument
	}

	return nil
}

// SetBorrowing toggles the borrowing bit of asset id
func (c *UserConfiguration) SetBorrowing(id uint16, borrowing bool) error {
	if err := checkAssetID(id); err != nil {
		return err
	}

	c.set(2*uint(id), borrowing)
	return nil
}

// SetUsingAsCollateral toggles the collateral bit of asset id
func (c *UserConfiguration) SetUsingAsCollateral(id uint16, using bool) error {
	if err := checkAssetID(id); err != nil {
		return err
	}

	c.set(2*uint(id)+1, using)
	return nil
}

// IsBorrowing asset id borrowed
func (c *UserConfiguration) IsBorrowing(id uint16) bool {
	if id >= MaxAssets {
		return false
	}

	return c.bit(2 * uint(id))
}

// IsUsingAsCollateral asset id used as collateral
func (c *UserConfiguration) IsUsingAsCollateral(id uint16) bool {
	if id >= MaxAssets {
		return false
	}

	return c.bit(2*uint(id) + 1)
}

// IsBorrowingAny any borrowing bit set
func (c *UserConfiguration) IsBorrowingAny() bool {
	v := new(uint256.Int).And(&c.data, borrowingMask)
	return !v.IsZero()
}

// IsUsingAsCollateralAny any collateral bit set
func (c *UserConfiguration) IsUsingAsCollateralAny() bool {
	v := new(uint256.Int).And(&c.data, collateralMask)
	return !v.IsZero()
}

// IsEmpty no bits set
func (c *UserConfiguration) IsEmpty() bool {
	return c.data.IsZero()
}

// BorrowingIDs asset ids with the borrowing bit, ascending
func (c *UserConfiguration) BorrowingIDs() []uint16 {
	return c.scan(0)
}

// CollateralIDs asset ids with the collateral bit, ascending
func (c *UserConfiguration) CollateralIDs() []uint16 {
	return c.scan(1)
}

func (c *UserConfiguration) scan(offset uint) []uint16 {
	var ids []uint16
	if c.data.IsZero() {
		return ids
	}

	for id := uint(0); id < MaxAssets; id++ {
		if c.bit(2*id + offset) {
			ids = append(ids, uint16(id))
		}
	}

	return ids
}

func (c UserConfiguration) String() string {
	return c.data.Hex()
}

// MarshalJSON hex encoded word
func (c UserConfiguration) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.data.Hex())
}

// UnmarshalJSON hex encoded word
func (c *UserConfiguration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		c.data.Clear()
		return nil
	}

	return c.data.SetFromHex(s)
}
