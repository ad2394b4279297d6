package util

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// FormatUnits renders a fixed-point integer scaled by 10^decimals as an exact
// decimal string with trailing zeros removed: FormatUnits(1500000, 6) == "1.5".
// A nil value renders as "0".
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil || value.Sign() == 0 {
		return "0"
	}
	coeff := new(apd.BigInt).SetMathBigInt(value)
	d := apd.NewWithBigInt(coeff, -int32(decimals))
	d.Reduce(d)
	return d.Text('f')
}
