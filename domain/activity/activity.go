package activity

import (
	"time"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
)

type Type string

const (
	// listing book
	TypeListingSet      Type = "listingSet"
	TypeListingAccepted Type = "listingAccepted"
	TypeListingCanceled Type = "listingCanceled"

	// offer book
	TypeOfferSet      Type = "offerSet"
	TypeOfferAccepted Type = "offerAccepted"
	TypeOfferCanceled Type = "offerCanceled"
)

// Activity is the notification event emitted after every create, update,
// accept or cancel, carrying the full new or cleared state. Off-core
// indexers consume these; the books only append.
type Activity struct {
	Id     string           `json:"id" bson:"id"`
	Book   marketplace.Book `json:"book" bson:"book"`
	Type   Type             `json:"type" bson:"type"`
	ItemId domain.ItemId    `json:"itemId" bson:"itemId"`

	Seller domain.Address `json:"seller,omitempty" bson:"seller,omitempty"`
	Buyer  domain.Address `json:"buyer,omitempty" bson:"buyer,omitempty"`

	// PriceAttoSci is the curve/settled price for accepts, the recorded
	// terms for sets, and the refunded escrow for offer cancels.
	PriceAttoSci string `json:"priceAttoSci,omitempty" bson:"priceAttoSci,omitempty"`

	Time time.Time `json:"time" bson:"time"`
}

type FindAllOptions struct {
	Book   *marketplace.Book
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

func WithBook(book marketplace.Book) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Book = &book
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
	Insert(c ctx.Ctx, a *Activity) error
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Activity, error)
}

type UseCase interface {
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Activity, error)
}
