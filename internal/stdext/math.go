package stdext

import (
	"errors"
	"fmt"
	"math"
)

// Math is the "Math" extension set.
type Math struct{}

func (Math) ExtAbs(x float64) float64 { return math.Abs(x) }

func (Math) ExtClamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ExtRound rounds x to places decimal places.
func (Math) ExtRound(x, places float64) float64 {
	p := math.Pow(10, math.Trunc(places))
	return math.Round(x*p) / p
}

func (Math) ExtSqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, fmt.Errorf("square root of negative number %g", x)
	}
	return math.Sqrt(x), nil
}

// ExtDivMod stores the truncated quotient and the remainder of a/b.
func (Math) ExtDivMod(a, b float64, q, r []float64) error {
	if b == 0 {
		return errors.New("division by zero")
	}
	q[0] = math.Trunc(a / b)
	r[0] = math.Mod(a, b)
	return nil
}

// ExtMinMax stores the smallest and largest number in values. Strings are
// ignored.
func (Math) ExtMinMax(values []any, lo, hi []float64) error {
	found := false
	for _, v := range values {
		n, ok := v.(float64)
		if !ok {
			continue
		}
		if !found || n < lo[0] {
			lo[0] = n
		}
		if !found || n > hi[0] {
			hi[0] = n
		}
		found = true
	}
	if !found {
		return errEmptyArray
	}
	return nil
}

// ExtMean returns the arithmetic mean of the numbers in values.
func (Math) ExtMean(values []any) (float64, error) {
	sum, n := 0.0, 0
	for _, v := range values {
		if x, ok := v.(float64); ok {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0, errEmptyArray
	}
	return sum / float64(n), nil
}
