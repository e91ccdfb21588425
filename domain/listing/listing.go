package listing

import (
	"math/big"
	"time"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
)

// Listing is a seller-initiated sale with a time-varying price curve.
// At most one listing is active per item; while it is active the item is
// held by the book's escrow account, and the absence of a record means the
// item is not in marketplace custody.
type Listing struct {
	ItemId domain.ItemId  `json:"itemId" bson:"itemId"`
	Seller domain.Address `json:"seller" bson:"seller"`

	StartTimeSec int64 `json:"startTimeSec" bson:"startTimeSec"`
	// EndTimeSec == 0 means evergreen: no expiry and a constant price.
	EndTimeSec int64 `json:"endTimeSec" bson:"endTimeSec"`

	// StartPriceAttoSci is the price at StartTimeSec, a decimal attoSci string.
	StartPriceAttoSci string `json:"startPriceAttoSci" bson:"startPriceAttoSci"`

	// PriceIncreases selects an ascending English-style curve over the
	// descending Dutch-style default. Meaningless for evergreen listings.
	PriceIncreases bool `json:"priceIncreases" bson:"priceIncreases"`

	// PriceSlopeNumerator is the unsigned fixed-point slope magnitude over
	// an implicit 2^64 denominator per elapsed second, as a decimal string.
	// Zero for constant-price and evergreen listings.
	PriceSlopeNumerator string `json:"priceSlopeNumerator" bson:"priceSlopeNumerator"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (l *Listing) StartPrice() (*big.Int, error) {
	return domain.ToBigInt(l.StartPriceAttoSci)
}

func (l *Listing) SlopeNumerator() (*big.Int, error) {
	return domain.ToBigInt(l.PriceSlopeNumerator)
}

// PriceAt evaluates the listing's curve at atTimeSec. It does not check the
// validity window; callers enforce NotYetStarted/Expired separately.
func (l *Listing) PriceAt(atTimeSec int64) (*big.Int, error) {
	startPrice, err := l.StartPrice()
	if err != nil {
		return nil, err
	}
	slope, err := l.SlopeNumerator()
	if err != nil {
		return nil, err
	}
	return Price(atTimeSec, l.StartTimeSec, startPrice, l.PriceIncreases, slope)
}

type FindAllOptions struct {
	Seller *domain.Address
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

func WithSeller(seller domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Seller = seller.ToLowerPtr()
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
	FindOne(c ctx.Ctx, item domain.ItemId) (*Listing, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Listing, error)
	Upsert(c ctx.Ctx, l *Listing) error
	Remove(c ctx.Ctx, item domain.ItemId) error
}

// SetListingPayload carries the terms of a create-or-update. FeeAttoSci is
// the fee the caller attached: it must equal the book's listing fee on first
// creation (waived for SUPERADMIN) and zero on update.
type SetListingPayload struct {
	Caller domain.Address `json:"caller" validate:"required"`
	ItemId domain.ItemId  `json:"itemId" validate:"required"`
	Seller domain.Address `json:"seller" validate:"required"`

	StartTimeSec        int64  `json:"startTimeSec"`
	EndTimeSec          int64  `json:"endTimeSec"`
	StartPriceAttoSci   string `json:"startPriceAttoSci" validate:"required"`
	PriceIncreases      bool   `json:"priceIncreases"`
	PriceSlopeNumerator string `json:"priceSlopeNumerator" validate:"required"`

	FeeAttoSci string `json:"feeAttoSci"`
}

type AcceptListingPayload struct {
	Caller domain.Address `json:"caller" validate:"required"`
	Buyer  domain.Address `json:"buyer" validate:"required"`
	ItemId domain.ItemId  `json:"itemId" validate:"required"`

	// MaxPriceAttoSci bounds the curve price the buyer is willing to pay.
	MaxPriceAttoSci string `json:"maxPriceAttoSci" validate:"required"`
}

type UseCase interface {
	SetListing(c ctx.Ctx, p SetListingPayload) (*Listing, error)
	AcceptListing(c ctx.Ctx, p AcceptListingPayload) error
	CancelListing(c ctx.Ctx, caller domain.Address, item domain.ItemId) error

	// CancelAllListings resumes the paused bulk unwind, cancelling up to
	// limit listings in creation order. Returns the number cancelled.
	CancelAllListings(c ctx.Ctx, caller domain.Address, limit int) (int, error)

	GetListing(c ctx.Ctx, item domain.ItemId) (*Listing, error)
	GetListingPrice(c ctx.Ctx, item domain.ItemId) (*big.Int, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Listing, error)
}
