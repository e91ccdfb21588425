package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	Big0 = big.NewInt(0)
	Big1 = big.NewInt(1)
)

// Address identifies a ledger account. Stored lowercased.
type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// ItemId identifies a unique, non-divisible asset on the ledger.
type ItemId string

func (i ItemId) String() string {
	return string(i)
}

// AssetId identifies any ledger asset, fungible or not. Every ItemId is an
// AssetId; the currency occupies the reserved id below.
type AssetId string

// CurrencyAssetId is the fungible SCI token, denominated in attoSci.
const CurrencyAssetId = AssetId("0")

func (i ItemId) AssetId() AssetId {
	return AssetId(i)
}

// Table is a mongo collection name.
type Table string

const (
	TableListings    Table = "listings"
	TableOffers      Table = "offers"
	TableBookParams  Table = "book_params"
	TableBookKeyLog  Table = "book_key_log"
	TableDenyFlags   Table = "deny_flags"
	TableActivities  Table = "activities"
	TableBalances    Table = "ledger_balances"
	TableLedgerItems Table = "ledger_items"
	TableLedgerRoles Table = "ledger_roles"
)

// ToBigInt parses a decimal string into a big.Int, e.g. attoSci amounts
// persisted as strings.
func ToBigInt(num string) (*big.Int, error) {
	bn, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return nil, ErrInvalidNumberFormat
	}
	return bn, nil
}

// FormatSci renders an attoSci amount as a whole-token decimal string,
// for display only. Arithmetic stays in attoSci big.Ints.
func FormatSci(atto *big.Int) string {
	return decimal.NewFromBigInt(atto, -18).String()
}
