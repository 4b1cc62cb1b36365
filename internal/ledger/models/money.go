package models

import (
	"math/bits"

	dErrors "factorline/pkg/domain-errors"
)

// All monetary values are uint64 minor units of the settlement asset
// (10^6 units = 1 whole unit for a 6-decimal asset). Division truncates.
// Overflow on addition or multiplication is a fatal arithmetic error and
// aborts the operation; amounts are never silently wrapped.

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, dErrors.New(dErrors.CodeInternal, "amount addition overflow")
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, dErrors.New(dErrors.CodeInternal, "amount multiplication overflow")
	}
	return lo, nil
}
