package marketplace

import (
	"math/big"
)

// Split is the outcome of settling a sale: how much of the price goes to
// the seller and to the item's beneficiary, and whether the ledger must
// clear the item's full-benefit flag as a one-shot side effect.
type Split struct {
	Seller           *big.Int
	Beneficiary      *big.Int
	ClearFullBenefit bool
}

// Settle splits price between seller and beneficiary. With the full-benefit
// flag set, the beneficiary takes everything; otherwise the beneficiary
// receives floor(price * royaltyNumerator / 256) and the seller the rest.
// Royalty state is the state read at acceptance time, never a snapshot
// taken at listing or offer creation.
func Settle(price *big.Int, royaltyNumerator uint32, isFullBenefit, willUnsetFullBenefit bool) Split {
	if isFullBenefit {
		return Split{
			Seller:           new(big.Int),
			Beneficiary:      new(big.Int).Set(price),
			ClearFullBenefit: willUnsetFullBenefit,
		}
	}

	royalty := new(big.Int).Mul(price, big.NewInt(int64(royaltyNumerator)))
	royalty.Div(royalty, big.NewInt(RoyaltyDenominator))

	return Split{
		Seller:      new(big.Int).Sub(price, royalty),
		Beneficiary: royalty,
	}
}
