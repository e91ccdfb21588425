package ledger

import (
	"math/big"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	domainledger "github.com/scimarket/goapi/domain/ledger"
	"github.com/scimarket/goapi/service/query"
)

type balanceRecord struct {
	Account domain.Address `bson:"account"`
	Asset   domain.AssetId `bson:"asset"`
	Amount  string         `bson:"amount"`
}

type itemRecord struct {
	domainledger.ItemState `bson:",inline"`
	Minted                 bool `bson:"minted"`
}

type roleRecord struct {
	Role    domainledger.Role `bson:"role"`
	Account domain.Address    `bson:"account"`
}

// impl is the mongo-backed ledger collaborator. Currency balances are
// decimal attoSci strings; item custody is the owner field of the item
// record, so an item transfer is an ownership rewrite and never changes
// any balance row.
type impl struct {
	q query.Mongo
}

func New(q query.Mongo) domainledger.Ledger {
	return &impl{q}
}

func (im *impl) BalanceOf(c ctx.Ctx, account domain.Address, asset domain.AssetId) (*big.Int, error) {
	account = account.ToLower()
	if asset != domain.CurrencyAssetId {
		owner, err := im.OwnerOf(c, domain.ItemId(asset))
		if err == domain.ErrNotFound {
			return new(big.Int), nil
		} else if err != nil {
			return nil, err
		}
		if owner.Equals(account) {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	}

	rec := &balanceRecord{}
	err := im.q.FindOne(c, domain.TableBalances, bson.M{"account": account, "asset": asset}, rec)
	if err == query.ErrNotFound {
		return new(big.Int), nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"account": account,
		}).Error("failed to q.FindOne")
		return nil, err
	}
	return domain.ToBigInt(rec.Amount)
}

func (im *impl) Transfer(c ctx.Ctx, from, to domain.Address, asset domain.AssetId, amount *big.Int) error {
	from = from.ToLower()
	to = to.ToLower()
	if from.IsEmpty() || to.IsEmpty() {
		return domain.ErrInvalidAccount
	}
	if amount.Sign() <= 0 {
		return domain.ErrInvalidNumberFormat
	}

	if asset != domain.CurrencyAssetId {
		return im.transferItem(c, from, to, domain.ItemId(asset))
	}
	return im.transferCurrency(c, from, to, amount)
}

func (im *impl) transferCurrency(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	fromBal, err := im.BalanceOf(c, from, domain.CurrencyAssetId)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	toBal, err := im.BalanceOf(c, to, domain.CurrencyAssetId)
	if err != nil {
		return err
	}

	if err := im.setBalance(c, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return im.setBalance(c, to, new(big.Int).Add(toBal, amount))
}

func (im *impl) setBalance(c ctx.Ctx, account domain.Address, amount *big.Int) error {
	rec := balanceRecord{Account: account, Asset: domain.CurrencyAssetId, Amount: amount.String()}
	if err := im.q.Upsert(c, domain.TableBalances, bson.M{
		"account": account,
		"asset":   domain.CurrencyAssetId,
	}, &rec); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"account": account,
		}).Error("failed to q.Upsert")
		return err
	}
	return nil
}

func (im *impl) transferItem(c ctx.Ctx, from, to domain.Address, item domain.ItemId) error {
	rec, err := im.findItem(c, item)
	if err == domain.ErrNotFound {
		return domain.ErrInsufficientBalance
	} else if err != nil {
		return err
	}
	if !rec.Owner.Equals(from) {
		return domain.ErrInsufficientBalance
	}
	if err := im.q.Patch(c, domain.TableLedgerItems, bson.M{"itemId": item}, bson.M{"owner": to}); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}

func (im *impl) findItem(c ctx.Ctx, item domain.ItemId) (*itemRecord, error) {
	rec := &itemRecord{}
	err := im.q.FindOne(c, domain.TableLedgerItems, bson.M{"itemId": item}, rec)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Error("failed to q.FindOne")
		return nil, err
	}
	return rec, nil
}

func (im *impl) IsMinted(c ctx.Ctx, item domain.ItemId) (bool, error) {
	rec, err := im.findItem(c, item)
	if err == domain.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return rec.Minted, nil
}

func (im *impl) OwnerOf(c ctx.Ctx, item domain.ItemId) (domain.Address, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return "", err
	}
	return rec.Owner, nil
}

func (im *impl) IsBlocklisted(c ctx.Ctx, item domain.ItemId) (bool, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return false, err
	}
	return rec.IsBlocklisted, nil
}

func (im *impl) IsBridged(c ctx.Ctx, item domain.ItemId) (bool, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return false, err
	}
	return rec.IsBridged, nil
}

func (im *impl) BeneficiaryOf(c ctx.Ctx, item domain.ItemId) (domain.Address, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return "", err
	}
	return rec.Beneficiary, nil
}

func (im *impl) IsFullBenefit(c ctx.Ctx, item domain.ItemId) (bool, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return false, err
	}
	return rec.IsFullBenefit, nil
}

func (im *impl) WillUnsetFullBenefit(c ctx.Ctx, item domain.ItemId) (bool, error) {
	rec, err := im.findItem(c, item)
	if err != nil {
		return false, err
	}
	return rec.WillUnsetFullBenefit, nil
}

func (im *impl) ClearFullBenefit(c ctx.Ctx, item domain.ItemId) error {
	if err := im.q.Patch(c, domain.TableLedgerItems, bson.M{"itemId": item}, bson.M{
		"isFullBenefit":        false,
		"willUnsetFullBenefit": false,
	}); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}

func (im *impl) HasRole(c ctx.Ctx, role domainledger.Role, account domain.Address) (bool, error) {
	rec := &roleRecord{}
	err := im.q.FindOne(c, domain.TableLedgerRoles, bson.M{
		"role":    role,
		"account": account.ToLower(),
	}, rec)
	if err == query.ErrNotFound {
		return false, nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"role":    role,
			"account": account,
		}).Error("failed to q.FindOne")
		return false, err
	}
	return true, nil
}
