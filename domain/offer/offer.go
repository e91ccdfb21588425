package offer

import (
	"math/big"
	"time"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
)

// Offer is a buyer-initiated escrowed bid, keyed by (buyer, item). Multiple
// buyers may bid on the same item independently. While an offer exists the
// book's escrow account holds exactly PriceAttoSci on the buyer's behalf;
// updates adjust record and escrow atomically so the two never diverge.
type Offer struct {
	Buyer  domain.Address `json:"buyer" bson:"buyer"`
	ItemId domain.ItemId  `json:"itemId" bson:"itemId"`

	// EndTimeSec == 0 means the offer never expires.
	EndTimeSec int64 `json:"endTimeSec" bson:"endTimeSec"`

	// PriceAttoSci is the exact escrowed amount, a decimal attoSci string.
	PriceAttoSci string `json:"priceAttoSci" bson:"priceAttoSci"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (o *Offer) Price() (*big.Int, error) {
	return domain.ToBigInt(o.PriceAttoSci)
}

func (o *Offer) ToId() Id {
	return Id{Buyer: o.Buyer.ToLower(), ItemId: o.ItemId}
}

// Id is the (buyer, item) key of an offer.
type Id struct {
	Buyer  domain.Address `json:"buyer" bson:"buyer"`
	ItemId domain.ItemId  `json:"itemId" bson:"itemId"`
}

// LogKey is the offer's slot key in the book's append-only key log.
func (id Id) LogKey() string {
	return id.Buyer.ToLowerStr() + ":" + id.ItemId.String()
}

type FindAllOptions struct {
	Buyer  *domain.Address
	ItemId *domain.ItemId
	Offset *int32
	Limit  *int32
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithBuyer(buyer domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Buyer = buyer.ToLowerPtr()
		return nil
	}
}

func WithItemId(item domain.ItemId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.ItemId = &item
		return nil
	}
}

func WithPagination(offset, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id Id) (*Offer, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Offer, error)
	Upsert(c ctx.Ctx, o *Offer) error
	Remove(c ctx.Ctx, id Id) error
}

// SetOfferPayload creates or updates a bid. FeeAttoSci must equal the book's
// offer fee on first creation (waived for SUPERADMIN) and zero on update.
type SetOfferPayload struct {
	Caller domain.Address `json:"caller" validate:"required"`
	Buyer  domain.Address `json:"buyer" validate:"required"`
	ItemId domain.ItemId  `json:"itemId" validate:"required"`

	EndTimeSec   int64  `json:"endTimeSec"`
	PriceAttoSci string `json:"priceAttoSci" validate:"required"`

	FeeAttoSci string `json:"feeAttoSci"`
}

// AcceptOfferPayload must match the stored offer exactly; PriceAttoSci
// guards the seller against a concurrent bid update.
type AcceptOfferPayload struct {
	Caller domain.Address `json:"caller" validate:"required"`
	Seller domain.Address `json:"seller" validate:"required"`
	Buyer  domain.Address `json:"buyer" validate:"required"`
	ItemId domain.ItemId  `json:"itemId" validate:"required"`

	PriceAttoSci string `json:"priceAttoSci" validate:"required"`
}

type UseCase interface {
	SetOffer(c ctx.Ctx, p SetOfferPayload) (*Offer, error)
	AcceptOffer(c ctx.Ctx, p AcceptOfferPayload) error
	CancelOffer(c ctx.Ctx, caller domain.Address, id Id) error

	// CancelAllOffers resumes the paused bulk unwind, cancelling up to
	// limit offers in creation order. Returns the number cancelled.
	CancelAllOffers(c ctx.Ctx, caller domain.Address, limit int) (int, error)

	GetOffer(c ctx.Ctx, id Id) (*Offer, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Offer, error)
}
