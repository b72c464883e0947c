package axis

import (
	"math/big"
)

// MaxDataWidth is the widest data bus supported, in bits.
const MaxDataWidth = 512

// MaxSidebandWidth is the widest id/dest/user field supported, in bits.
const MaxSidebandWidth = 64

// Widths describes the bit widths of the fields of a stream interface.
type Widths struct {
	Data int `yaml:"data" json:"data"`
	ID   int `yaml:"id" json:"id"`
	Dest int `yaml:"dest" json:"dest"`
	User int `yaml:"user" json:"user"`
}

// DefaultWidths returns a 32-bit data bus without sideband fields.
func DefaultWidths() Widths {
	return Widths{Data: 32}
}

// Validate checks that the widths can describe a stream interface.
func (w Widths) Validate() error {
	if w.Data <= 0 || w.Data%8 != 0 || w.Data > MaxDataWidth {
		return NewConfigurationError("widths",
			"data width %d must be a positive multiple of 8 no larger than %d",
			w.Data, MaxDataWidth)
	}

	sidebands := []struct {
		name  string
		width int
	}{
		{"id", w.ID},
		{"dest", w.Dest},
		{"user", w.User},
	}

	for _, s := range sidebands {
		if s.width < 0 || s.width > MaxSidebandWidth {
			return NewConfigurationError("widths",
				"%s width %d must be within [0, %d]",
				s.name, s.width, MaxSidebandWidth)
		}
	}

	return nil
}

// StrobeWidth returns the number of byte lanes, which is also the width of the
// strobe and keep masks.
func (w Widths) StrobeWidth() int {
	return w.Data / 8
}

// MaxData returns the all-ones value of the data field.
func (w Widths) MaxData() *big.Int {
	return AllOnes(w.Data)
}

// Match returns a ProtocolMismatchError describing the first field whose width
// differs between w (the configured side) and other.
func (w Widths) Match(other Widths) error {
	pairs := []struct {
		field     string
		want, got int
	}{
		{"tdata", w.Data, other.Data},
		{"tid", w.ID, other.ID},
		{"tdest", w.Dest, other.Dest},
		{"tuser", w.User, other.User},
	}

	for _, p := range pairs {
		if p.want != p.got {
			return &ProtocolMismatchError{
				Field: p.field,
				Want:  p.want,
				Got:   p.got,
			}
		}
	}

	return nil
}

// AllOnes returns 2^bits - 1.
func AllOnes(bits int) *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return v.Sub(v, big.NewInt(1))
}

// Mask returns a uint64 with the low bits set.
func Mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(bits)) - 1
}
