package marketplace

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/scimarket/goapi/domain"
)

type AuthTestSuite struct {
	suite.Suite
}

var (
	alice      = domain.Address("0xalice")
	superadmin = Actor{Addr: "0xsuper", IsSuperadmin: true}
	ceo        = Actor{Addr: "0xceo", IsCEO: true}
	stranger   = Actor{Addr: "0xmallory"}
)

func (s *AuthTestSuite) TestAuthorize() {
	tests := []struct {
		desc   string
		caller Actor
		denied bool
		who    Principal
		expErr error
	}{
		{
			desc:   "principal itself",
			caller: Actor{Addr: alice},
			who:    PrincipalSeller,
		},
		{
			desc:   "principal itself with deny flag set",
			caller: Actor{Addr: alice},
			denied: true,
			who:    PrincipalSeller,
		},
		{
			desc:   "case-insensitive principal match",
			caller: Actor{Addr: "0xALICE"},
			who:    PrincipalSeller,
		},
		{
			desc:   "superadmin for seller",
			caller: superadmin,
			who:    PrincipalSeller,
		},
		{
			desc:   "superadmin for buyer",
			caller: superadmin,
			who:    PrincipalBuyer,
		},
		{
			desc:   "superadmin denied by seller",
			caller: superadmin,
			denied: true,
			who:    PrincipalSeller,
			expErr: domain.ErrSellerDeniedSuperadmin,
		},
		{
			desc:   "superadmin denied by buyer",
			caller: superadmin,
			denied: true,
			who:    PrincipalBuyer,
			expErr: domain.ErrBuyerDeniedSuperadmin,
		},
		{
			desc:   "stranger for seller",
			caller: stranger,
			who:    PrincipalSeller,
			expErr: domain.ErrOnlySellerOrSuperadmin,
		},
		{
			desc:   "stranger for buyer",
			caller: stranger,
			who:    PrincipalBuyer,
			expErr: domain.ErrOnlyBuyerOrSuperadmin,
		},
		{
			desc:   "ceo holds no delegate power outside cancel",
			caller: ceo,
			who:    PrincipalSeller,
			expErr: domain.ErrOnlySellerOrSuperadmin,
		},
	}
	for _, t := range tests {
		err := Authorize(t.caller, alice, t.denied, t.who)
		s.Equal(t.expErr, err, t.desc)
	}
}

func (s *AuthTestSuite) TestAuthorizeCancel() {
	tests := []struct {
		desc   string
		caller Actor
		denied bool
		who    Principal
		expErr error
	}{
		{
			desc:   "principal itself",
			caller: Actor{Addr: alice},
			who:    PrincipalSeller,
		},
		{
			desc:   "ceo overrides",
			caller: ceo,
			who:    PrincipalSeller,
		},
		{
			desc:   "ceo overrides even a deny flag",
			caller: ceo,
			denied: true,
			who:    PrincipalBuyer,
		},
		{
			desc:   "superadmin still subject to deny flag",
			caller: superadmin,
			denied: true,
			who:    PrincipalSeller,
			expErr: domain.ErrSellerDeniedSuperadmin,
		},
		{
			desc:   "stranger error names all permitted roles for seller",
			caller: stranger,
			who:    PrincipalSeller,
			expErr: domain.ErrOnlySellerSuperadminOrCEO,
		},
		{
			desc:   "stranger error names all permitted roles for buyer",
			caller: stranger,
			who:    PrincipalBuyer,
			expErr: domain.ErrOnlyBuyerSuperadminOrCEO,
		},
	}
	for _, t := range tests {
		err := AuthorizeCancel(t.caller, alice, t.denied, t.who)
		s.Equal(t.expErr, err, t.desc)
	}
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
