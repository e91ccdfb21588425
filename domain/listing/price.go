package listing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scimarket/goapi/domain"
)

// slopeShift is the implicit denominator of PriceSlopeNumerator: the slope
// is stored pre-scaled by 2^64 so the curve needs no floating point.
const slopeShift = 64

// Price evaluates the linear price curve at atTimeSec.
//
//	displacement = slopeNumerator * (atTimeSec - startTimeSec) / 2^64
//
// computed multiply-before-divide in a big.Int intermediate. The result
// saturates instead of wrapping: an increasing curve clamps to the maximum
// uint256 amount and a decreasing curve clamps to zero, so acceptance never
// fails on curve arithmetic.
func Price(atTimeSec, startTimeSec int64, startPrice *big.Int, priceIncreases bool, slopeNumerator *big.Int) (*big.Int, error) {
	if atTimeSec < startTimeSec {
		return nil, domain.ErrInvalidTime
	}

	displacement := new(big.Int).Mul(slopeNumerator, big.NewInt(atTimeSec-startTimeSec))
	displacement.Rsh(displacement, slopeShift)

	if priceIncreases {
		price := new(big.Int).Add(startPrice, displacement)
		if price.Cmp(math.MaxBig256) > 0 {
			return new(big.Int).Set(math.MaxBig256), nil
		}
		return price, nil
	}

	price := new(big.Int).Sub(startPrice, displacement)
	if price.Sign() < 0 {
		return new(big.Int), nil
	}
	return price, nil
}

// SlopeNumerator derives the stored slope from listing terms:
// |endPrice - startPrice| * 2^64 / (endTimeSec - startTimeSec), multiply
// before divide. Evergreen listings (endTimeSec == 0) get a zero slope.
func SlopeNumerator(startTimeSec, endTimeSec int64, startPrice, endPrice *big.Int) (*big.Int, error) {
	if endTimeSec == 0 {
		return new(big.Int), nil
	}
	if endTimeSec <= startTimeSec {
		return nil, domain.ErrInvalidEndTime
	}

	diff := new(big.Int).Sub(endPrice, startPrice)
	diff.Abs(diff)
	diff.Lsh(diff, slopeShift)
	return diff.Div(diff, big.NewInt(endTimeSec-startTimeSec)), nil
}
