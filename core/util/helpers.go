package util

import "math/big"

// TransformOrNil returns nil if the value is nil, otherwise applies the transform function.
//
// This helper is commonly used when building optional query filters, where an
// absent bound must be left out entirely rather than sent as a zero value.
//
// Example:
//
//	gte := util.TransformOrNil(f.from, func(ts int64) any { return strconv.FormatInt(ts, 10) })
func TransformOrNil[T any](value *T, transform func(T) any) any {
	if value == nil {
		return nil
	}
	return transform(*value)
}

// BigOrZero returns v, or a fresh zero when v is nil.
func BigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// SumBig adds all values, treating nil as zero. The result never aliases an input.
func SumBig(values ...*big.Int) *big.Int {
	sum := new(big.Int)
	for _, v := range values {
		if v != nil {
			sum.Add(sum, v)
		}
	}
	return sum
}
