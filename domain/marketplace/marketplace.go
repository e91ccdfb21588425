package marketplace

import (
	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
)

// Book names one of the two marketplace books. Each book carries its own
// parameters, deny flags, key log and unwind cursor.
type Book string

const (
	BookListings Book = "listings"
	BookOffers   Book = "offers"
)

// RoyaltyDenominator fixes royalty rates to eight-bit precision.
const RoyaltyDenominator = 256

// Params is the book-global parameter snapshot. Usecases load it once at
// the top of an operation and pass it down, so pricing and settlement stay
// referentially transparent. Mutations go through the admin usecase only.
type Params struct {
	Book Book `json:"book" bson:"book"`

	// Fee is the flat creation fee in attoSci, charged on first creation
	// only and waived for SUPERADMIN.
	Fee string `json:"fee" bson:"fee"`

	// RoyaltyNumerator over RoyaltyDenominator.
	RoyaltyNumerator uint32 `json:"royaltyNumerator" bson:"royaltyNumerator"`

	Paused bool `json:"paused" bson:"paused"`

	// NextCursorIndex is the sole progress record of a paused bulk unwind.
	// It indexes the book's append-only key log.
	NextCursorIndex uint64 `json:"nextCursorIndex" bson:"nextCursorIndex"`

	// FeesAccrued is the withdrawable fee balance in attoSci, held by the
	// escrow account alongside escrowed offer funds.
	FeesAccrued string `json:"feesAccrued" bson:"feesAccrued"`

	// EscrowAccount holds items and currency in marketplace custody.
	EscrowAccount domain.Address `json:"escrowAccount" bson:"escrowAccount"`
}

type ParamsPatchable struct {
	Fee              *string `bson:"fee,omitempty"`
	RoyaltyNumerator *uint32 `bson:"royaltyNumerator,omitempty"`
	Paused           *bool   `bson:"paused,omitempty"`
	NextCursorIndex  *uint64 `bson:"nextCursorIndex,omitempty"`
	FeesAccrued      *string `bson:"feesAccrued,omitempty"`
}

// KeyLogEntry is one slot of a book's append-only key log. Seq starts at 0
// and grows by one per record creation. Set-style updates reuse the record
// and append nothing; a re-creation after a cancel appends a fresh slot, so
// the unwind cursor, which only moves forward, still reaches every active
// record. Entries whose record is gone are skipped during the unwind.
type KeyLogEntry struct {
	Book Book   `json:"book" bson:"book"`
	Seq  uint64 `json:"seq" bson:"seq"`
	Key  string `json:"key" bson:"key"`
}

type ParamsRepo interface {
	Get(c ctx.Ctx, book Book) (*Params, error)
	Upsert(c ctx.Ctx, params *Params) error
	Patch(c ctx.Ctx, book Book, patchable ParamsPatchable) error
}

type KeyLogRepo interface {
	// Append adds key at the end of the book's log and returns its seq.
	Append(c ctx.Ctx, book Book, key string) (uint64, error)
	Count(c ctx.Ctx, book Book) (uint64, error)
	// Range returns up to limit entries starting at seq from, in seq order.
	Range(c ctx.Ctx, book Book, from uint64, limit int) ([]KeyLogEntry, error)
}

// DenyFlag records a principal's opt-out from SUPERADMIN delegation,
// settable only by the account itself.
type DenyFlag struct {
	Book    Book           `json:"book" bson:"book"`
	Account domain.Address `json:"account" bson:"account"`
	Denied  bool           `json:"denied" bson:"denied"`
}

type DenyFlagRepo interface {
	Get(c ctx.Ctx, book Book, account domain.Address) (bool, error)
	Set(c ctx.Ctx, book Book, account domain.Address, denied bool) error
}

// UseCase is the role-gated book administration surface.
type UseCase interface {
	GetParams(c ctx.Ctx, book Book) (*Params, error)
	SetFee(c ctx.Ctx, caller domain.Address, book Book, fee string) error
	SetRoyaltyNumerator(c ctx.Ctx, caller domain.Address, book Book, numerator uint32) error
	Pause(c ctx.Ctx, caller domain.Address, book Book) error
	Unpause(c ctx.Ctx, caller domain.Address, book Book) error
	Withdraw(c ctx.Ctx, caller, to domain.Address, book Book, amount string) error
	SetDenyDelegate(c ctx.Ctx, caller domain.Address, book Book, denied bool) error
	IsDelegateDenied(c ctx.Ctx, book Book, account domain.Address) (bool, error)
}
