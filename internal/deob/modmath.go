package deob

import "github.com/pkg/errors"

// ErrNotInvertible is returned for even (including zero) multipliers, which
// have no inverse modulo a power of two.
var ErrNotInvertible = errors.New("deob: multiplier is not invertible")

// ModInverse32 returns x with k*x == 1 mod 2^32.
func ModInverse32(k int32) (int32, error) {
	if k&1 == 0 {
		return 0, ErrNotInvertible
	}
	inv, _ := ModInverse64(int64(k))
	return int32(inv), nil
}

// ModInverse64 returns x with k*x == 1 mod 2^64.
func ModInverse64(k int64) (int64, error) {
	if k&1 == 0 {
		return 0, ErrNotInvertible
	}
	// Newton iteration; an odd k is its own inverse mod 8 and every step
	// doubles the number of correct low bits: 3, 6, 12, 24, 48, 96.
	a := uint64(k)
	x := a
	for i := 0; i < 5; i++ {
		x *= 2 - a*x
	}
	return int64(x), nil
}

// Inverse returns the setter constant undoing g.
func (g Getter) Inverse() (Getter, error) {
	if g.Long {
		v, err := ModInverse64(g.Value)
		return Getter{Value: v, Long: true}, err
	}
	v, err := ModInverse32(int32(g.Value))
	return Getter{Value: int64(v)}, err
}
