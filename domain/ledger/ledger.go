package ledger

import (
	"math/big"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
)

// Role is a closed set of privileged marketplace roles registered on the
// ledger. CEO is the emergency override, SUPERADMIN the privileged delegate
// that may act for any principal unless denied, CFO the treasury role.
type Role string

const (
	RoleCEO        Role = "CEO"
	RoleCFO        Role = "CFO"
	RoleSuperadmin Role = "SUPERADMIN"
)

// ItemState is the per-item state the marketplace consumes from the ledger.
type ItemState struct {
	ItemId      domain.ItemId  `json:"itemId" bson:"itemId"`
	Owner       domain.Address `json:"owner" bson:"owner"`
	Beneficiary domain.Address `json:"beneficiary" bson:"beneficiary"`

	// FULL_BENEFIT_FLAG routes the next qualifying sale entirely to the
	// beneficiary. UNSET_FULL_BENEFIT_FLAG makes that sale clear the flag.
	IsFullBenefit        bool `json:"isFullBenefit" bson:"isFullBenefit"`
	WillUnsetFullBenefit bool `json:"willUnsetFullBenefit" bson:"willUnsetFullBenefit"`

	// Blocklisted items cannot be listed or offered on. Bridged items are
	// temporarily held off-domain and are equally untradeable.
	IsBlocklisted bool `json:"isBlocklisted" bson:"isBlocklisted"`
	IsBridged     bool `json:"isBridged" bson:"isBridged"`
}

// Ledger is the external balance/ownership collaborator. Every call is
// atomic on the ledger side: a failed Transfer moves nothing.
type Ledger interface {
	BalanceOf(c ctx.Ctx, account domain.Address, asset domain.AssetId) (*big.Int, error)

	// Transfer moves amount units of asset. For items the amount is always 1.
	// Fails with domain.ErrInsufficientBalance or domain.ErrInvalidAccount.
	Transfer(c ctx.Ctx, from, to domain.Address, asset domain.AssetId, amount *big.Int) error

	IsMinted(c ctx.Ctx, item domain.ItemId) (bool, error)
	OwnerOf(c ctx.Ctx, item domain.ItemId) (domain.Address, error)

	IsBlocklisted(c ctx.Ctx, item domain.ItemId) (bool, error)
	IsBridged(c ctx.Ctx, item domain.ItemId) (bool, error)

	BeneficiaryOf(c ctx.Ctx, item domain.ItemId) (domain.Address, error)
	IsFullBenefit(c ctx.Ctx, item domain.ItemId) (bool, error)
	WillUnsetFullBenefit(c ctx.Ctx, item domain.ItemId) (bool, error)

	// ClearFullBenefit unsets both full-benefit flags as the one-shot side
	// effect of a qualifying sale.
	ClearFullBenefit(c ctx.Ctx, item domain.ItemId) error

	HasRole(c ctx.Ctx, role Role, account domain.Address) (bool, error)
}
