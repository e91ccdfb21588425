package marketplace

import (
	"github.com/scimarket/goapi/domain"
)

// Principal names which side of a trade an authorization check protects.
// It only affects the error wording, which callers rely on for testability.
type Principal string

const (
	PrincipalSeller Principal = "SELLER"
	PrincipalBuyer  Principal = "BUYER"
)

// Actor is the resolved caller of a protected action: its address plus the
// ledger roles it holds. Role resolution happens once per operation so the
// authorization rule itself stays a pure function.
type Actor struct {
	Addr         domain.Address
	IsSuperadmin bool
	IsCEO        bool
}

// Authorize implements the delegation rule for create/update/accept actions:
// the caller must be the principal itself, or SUPERADMIN while the principal
// has not opted out. The returned errors distinguish a wrong role entirely
// from an explicit delegate denial.
func Authorize(caller Actor, principal domain.Address, delegateDenied bool, who Principal) error {
	if caller.Addr.Equals(principal) {
		return nil
	}
	if caller.IsSuperadmin {
		if delegateDenied {
			if who == PrincipalSeller {
				return domain.ErrSellerDeniedSuperadmin
			}
			return domain.ErrBuyerDeniedSuperadmin
		}
		return nil
	}
	if who == PrincipalSeller {
		return domain.ErrOnlySellerOrSuperadmin
	}
	return domain.ErrOnlyBuyerOrSuperadmin
}

// AuthorizeCancel additionally admits CEO regardless of the deny flag:
// emergency unwind must never be blockable by a principal's opt-out.
func AuthorizeCancel(caller Actor, principal domain.Address, delegateDenied bool, who Principal) error {
	if caller.IsCEO {
		return nil
	}
	if err := Authorize(caller, principal, delegateDenied, who); err != nil {
		switch err {
		case domain.ErrOnlySellerOrSuperadmin:
			return domain.ErrOnlySellerSuperadminOrCEO
		case domain.ErrOnlyBuyerOrSuperadmin:
			return domain.ErrOnlyBuyerSuperadminOrCEO
		default:
			return err
		}
	}
	return nil
}
