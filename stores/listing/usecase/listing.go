package usecase

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/activity"
	"github.com/scimarket/goapi/domain/ledger"
	"github.com/scimarket/goapi/domain/listing"
	"github.com/scimarket/goapi/domain/marketplace"
)

var timeNow = time.Now

const book = marketplace.BookListings

type ListingUseCaseCfg struct {
	ListingRepo  listing.Repo
	ParamsRepo   marketplace.ParamsRepo
	KeyLogRepo   marketplace.KeyLogRepo
	DenyFlagRepo marketplace.DenyFlagRepo
	ActivityRepo activity.Repo
	Ledger       ledger.Ledger
}

type impl struct {
	listingRepo  listing.Repo
	paramsRepo   marketplace.ParamsRepo
	keyLogRepo   marketplace.KeyLogRepo
	denyFlagRepo marketplace.DenyFlagRepo
	activityRepo activity.Repo
	ledger       ledger.Ledger
}

func New(cfg *ListingUseCaseCfg) listing.UseCase {
	return &impl{
		listingRepo:  cfg.ListingRepo,
		paramsRepo:   cfg.ParamsRepo,
		keyLogRepo:   cfg.KeyLogRepo,
		denyFlagRepo: cfg.DenyFlagRepo,
		activityRepo: cfg.ActivityRepo,
		ledger:       cfg.Ledger,
	}
}

func (im *impl) resolveActor(c ctx.Ctx, addr domain.Address) (marketplace.Actor, error) {
	isSuperadmin, err := im.ledger.HasRole(c, ledger.RoleSuperadmin, addr)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"account": addr,
		}).Error("failed to ledger.HasRole")
		return marketplace.Actor{}, err
	}
	isCEO, err := im.ledger.HasRole(c, ledger.RoleCEO, addr)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"account": addr,
		}).Error("failed to ledger.HasRole")
		return marketplace.Actor{}, err
	}
	return marketplace.Actor{Addr: addr, IsSuperadmin: isSuperadmin, IsCEO: isCEO}, nil
}

func (im *impl) checkItem(c ctx.Ctx, item domain.ItemId) error {
	if item.AssetId() == domain.CurrencyAssetId {
		return domain.ErrInvalidItem
	}
	if minted, err := im.ledger.IsMinted(c, item); err != nil {
		return err
	} else if !minted {
		return domain.ErrInvalidItem
	}
	if blocklisted, err := im.ledger.IsBlocklisted(c, item); err != nil {
		return err
	} else if blocklisted {
		return domain.ErrItemBlocklisted
	}
	if bridged, err := im.ledger.IsBridged(c, item); err != nil {
		return err
	} else if bridged {
		return domain.ErrItemBridged
	}
	return nil
}

func (im *impl) emit(c ctx.Ctx, typ activity.Type, l *listing.Listing, buyer domain.Address, price string) {
	act := &activity.Activity{
		Id:           uuid.New().String(),
		Book:         book,
		Type:         typ,
		ItemId:       l.ItemId,
		Seller:       l.Seller,
		Buyer:        buyer,
		PriceAttoSci: price,
		Time:         timeNow().UTC(),
	}
	if err := im.activityRepo.Insert(c, act); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"activity": act,
		}).Warn("failed to activityRepo.Insert")
	}
}

func (im *impl) SetListing(c ctx.Ctx, p listing.SetListingPayload) (*listing.Listing, error) {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to paramsRepo.Get")
		return nil, err
	}
	if params.Paused {
		return nil, domain.ErrPaused
	}

	if err := im.checkItem(c, p.ItemId); err != nil {
		return nil, err
	}

	now := timeNow().Unix()
	if p.EndTimeSec != 0 {
		if p.EndTimeSec <= now {
			return nil, domain.ErrInvalidEndTime
		}
		if p.StartTimeSec >= p.EndTimeSec {
			return nil, domain.ErrInvalidStartTime
		}
	}

	if _, err := domain.ToBigInt(p.StartPriceAttoSci); err != nil {
		return nil, domain.ErrInvalidPrice
	}
	if _, err := domain.ToBigInt(p.PriceSlopeNumerator); err != nil {
		return nil, domain.ErrBadParamInput
	}
	fee := new(big.Int)
	if p.FeeAttoSci != "" {
		if fee, err = domain.ToBigInt(p.FeeAttoSci); err != nil {
			return nil, domain.ErrWrongListingFee
		}
	}

	actor, err := im.resolveActor(c, p.Caller)
	if err != nil {
		return nil, err
	}

	prior, err := im.listingRepo.FindOne(c, p.ItemId)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	seller := p.Seller.ToLower()
	if prior != nil {
		// updates act for the recorded seller, not the payload's
		seller = prior.Seller
	}

	denied, err := im.denyFlagRepo.Get(c, book, seller)
	if err != nil {
		return nil, err
	}
	if err := marketplace.Authorize(actor, seller, denied, marketplace.PrincipalSeller); err != nil {
		return nil, err
	}

	tx := ledger.NewTx(im.ledger)
	if prior == nil {
		if err := im.stageCustody(c, actor, seller, p.ItemId, fee, params, tx); err != nil {
			return nil, err
		}
	} else {
		// custody does not change on update, so no fee may be attached
		if fee.Sign() != 0 {
			return nil, domain.ErrWrongListingFee
		}
		if !p.Seller.Equals(prior.Seller) {
			return nil, domain.ErrOnlySellerOrSuperadmin
		}
	}
	if err := tx.Apply(c); err != nil {
		return nil, err
	}

	l := &listing.Listing{
		ItemId:              p.ItemId,
		Seller:              seller,
		StartTimeSec:        p.StartTimeSec,
		EndTimeSec:          p.EndTimeSec,
		StartPriceAttoSci:   p.StartPriceAttoSci,
		PriceIncreases:      p.PriceIncreases,
		PriceSlopeNumerator: p.PriceSlopeNumerator,
		UpdatedAt:           timeNow().UTC(),
	}
	if prior != nil {
		l.CreatedAt = prior.CreatedAt
	} else {
		l.CreatedAt = l.UpdatedAt
	}
	// evergreen listings carry no slope
	if l.EndTimeSec == 0 {
		l.PriceSlopeNumerator = "0"
	}

	if fee.Sign() > 0 {
		if err := im.accrueFee(c, fee); err != nil {
			tx.Rollback(c)
			return nil, err
		}
	}
	if err := im.listingRepo.Upsert(c, l); err != nil {
		tx.Rollback(c)
		if fee.Sign() > 0 {
			im.accrueFee(c, new(big.Int).Neg(fee))
		}
		return nil, err
	}

	im.emit(c, activity.TypeListingSet, l, "", l.StartPriceAttoSci)
	return l, nil
}

// stageCustody validates the creation fee, stages the custody and fee moves
// and appends the item to the book's key log. Runs only for first-time
// listings; a re-listed item appends a fresh slot so the unwind cursor,
// which only moves forward, still reaches it.
func (im *impl) stageCustody(c ctx.Ctx, actor marketplace.Actor, seller domain.Address, item domain.ItemId, fee *big.Int, params *marketplace.Params, tx *ledger.Tx) error {
	expectedFee := new(big.Int)
	if !actor.IsSuperadmin {
		var err error
		if expectedFee, err = domain.ToBigInt(params.Fee); err != nil {
			c.WithFields(log.Fields{
				"err": err,
				"fee": params.Fee,
			}).Error("malformed fee in book params")
			return err
		}
	}
	if fee.Cmp(expectedFee) != 0 {
		return domain.ErrWrongListingFee
	}

	owner, err := im.ledger.OwnerOf(c, item)
	if err == domain.ErrNotFound {
		return domain.ErrInvalidItem
	} else if err != nil {
		return err
	}
	if !owner.Equals(seller) {
		return domain.ErrInvalidItem
	}

	tx.Transfer(seller, params.EscrowAccount, item.AssetId(), domain.Big1)
	if fee.Sign() > 0 {
		tx.Transfer(actor.Addr, params.EscrowAccount, domain.CurrencyAssetId, fee)
	}

	// an entry whose record is gone is skipped by the unwind, so appending
	// before custody moves cannot strand anything
	if _, err := im.keyLogRepo.Append(c, book, item.String()); err != nil {
		return err
	}
	return nil
}

// accrueFee adds delta to the withdrawable fee counter. It reloads the
// params record, so a compensating call never reuses a stale snapshot.
func (im *impl) accrueFee(c ctx.Ctx, delta *big.Int) error {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	accrued, err := domain.ToBigInt(params.FeesAccrued)
	if err != nil {
		accrued = new(big.Int)
	}
	accrued.Add(accrued, delta)
	accruedStr := accrued.String()
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{FeesAccrued: &accruedStr})
}

func (im *impl) AcceptListing(c ctx.Ctx, p listing.AcceptListingPayload) error {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if params.Paused {
		return domain.ErrPaused
	}

	l, err := im.listingRepo.FindOne(c, p.ItemId)
	if err == domain.ErrNotFound {
		return domain.ErrInvalidItem
	} else if err != nil {
		return err
	}

	now := timeNow().Unix()
	if now < l.StartTimeSec {
		return domain.ErrListingNotYetStarted
	}
	if l.EndTimeSec != 0 && now > l.EndTimeSec {
		return domain.ErrListingExpired
	}

	price, err := l.PriceAt(now)
	if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": p.ItemId,
		}).Error("failed to l.PriceAt")
		return err
	}

	maxPrice, err := domain.ToBigInt(p.MaxPriceAttoSci)
	if err != nil {
		return domain.ErrInvalidPrice
	}
	if price.Cmp(maxPrice) > 0 {
		return domain.ErrPriceExceedsLimit
	}

	actor, err := im.resolveActor(c, p.Caller)
	if err != nil {
		return err
	}
	buyer := p.Buyer.ToLower()
	denied, err := im.denyFlagRepo.Get(c, book, buyer)
	if err != nil {
		return err
	}
	if err := marketplace.Authorize(actor, buyer, denied, marketplace.PrincipalBuyer); err != nil {
		return err
	}

	// buyer must cover the full price before any funds move
	balance, err := im.ledger.BalanceOf(c, buyer, domain.CurrencyAssetId)
	if err != nil {
		return err
	}
	if balance.Cmp(price) < 0 {
		return domain.ErrInsufficientBalance
	}

	split, err := im.settle(c, l.ItemId, price, params.RoyaltyNumerator)
	if err != nil {
		return err
	}

	// every payout leg is staged before anything moves, so an unresolvable
	// beneficiary or a short balance unwinds to the pre-accept state
	tx := ledger.NewTx(im.ledger)
	if split.Seller.Sign() > 0 {
		tx.Transfer(buyer, l.Seller, domain.CurrencyAssetId, split.Seller)
	}
	if split.Beneficiary.Sign() > 0 {
		beneficiary, err := im.ledger.BeneficiaryOf(c, l.ItemId)
		if err != nil {
			return err
		}
		tx.Transfer(buyer, beneficiary, domain.CurrencyAssetId, split.Beneficiary)
	}
	tx.Transfer(params.EscrowAccount, buyer, l.ItemId.AssetId(), domain.Big1)
	if err := tx.Apply(c); err != nil {
		return err
	}

	if err := im.listingRepo.Remove(c, l.ItemId); err != nil {
		tx.Rollback(c)
		return err
	}
	if split.ClearFullBenefit {
		if err := im.ledger.ClearFullBenefit(c, l.ItemId); err != nil {
			// the sale has settled, a failed flag clear must not unwind it
			c.WithFields(log.Fields{
				"err":    err,
				"itemId": l.ItemId,
			}).Error("failed to ledger.ClearFullBenefit")
		}
	}

	im.emit(c, activity.TypeListingAccepted, l, buyer, price.String())
	return nil
}

// settle reads royalty state from the ledger at acceptance time and splits
// the price. Never uses state captured at listing creation.
func (im *impl) settle(c ctx.Ctx, item domain.ItemId, price *big.Int, royaltyNumerator uint32) (marketplace.Split, error) {
	isFullBenefit, err := im.ledger.IsFullBenefit(c, item)
	if err != nil {
		return marketplace.Split{}, err
	}
	willUnset, err := im.ledger.WillUnsetFullBenefit(c, item)
	if err != nil {
		return marketplace.Split{}, err
	}
	return marketplace.Settle(price, royaltyNumerator, isFullBenefit, willUnset), nil
}

func (im *impl) CancelListing(c ctx.Ctx, caller domain.Address, item domain.ItemId) error {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if params.Paused {
		return domain.ErrPaused
	}

	l, err := im.listingRepo.FindOne(c, item)
	if err == domain.ErrNotFound {
		return domain.ErrInvalidItem
	} else if err != nil {
		return err
	}

	actor, err := im.resolveActor(c, caller)
	if err != nil {
		return err
	}
	denied, err := im.denyFlagRepo.Get(c, book, l.Seller)
	if err != nil {
		return err
	}
	if err := marketplace.AuthorizeCancel(actor, l.Seller, denied, marketplace.PrincipalSeller); err != nil {
		return err
	}

	return im.unwind(c, params, l)
}

// unwind returns the item to its seller and clears the record. Shared by
// the normal cancel path and the paused bulk unwind.
func (im *impl) unwind(c ctx.Ctx, params *marketplace.Params, l *listing.Listing) error {
	tx := ledger.NewTx(im.ledger)
	tx.Transfer(params.EscrowAccount, l.Seller, l.ItemId.AssetId(), domain.Big1)
	if err := tx.Apply(c); err != nil {
		return err
	}
	if err := im.listingRepo.Remove(c, l.ItemId); err != nil {
		tx.Rollback(c)
		return err
	}
	im.emit(c, activity.TypeListingCanceled, l, "", "")
	return nil
}

func (im *impl) CancelAllListings(c ctx.Ctx, caller domain.Address, limit int) (int, error) {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return 0, err
	}
	if !params.Paused {
		return 0, domain.ErrNotPaused
	}

	actor, err := im.resolveActor(c, caller)
	if err != nil {
		return 0, err
	}
	if !actor.IsCEO {
		return 0, domain.ErrOnlyCEO
	}

	total, err := im.keyLogRepo.Count(c, book)
	if err != nil {
		return 0, err
	}
	if params.NextCursorIndex >= total {
		// fully unwound already, repeated calls are cheap no-ops
		return 0, nil
	}

	entries, err := im.keyLogRepo.Range(c, book, params.NextCursorIndex, limit)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, entry := range entries {
		l, err := im.listingRepo.FindOne(c, domain.ItemId(entry.Key))
		if err == domain.ErrNotFound {
			continue
		} else if err != nil {
			return canceled, err
		}
		if err := im.unwind(c, params, l); err != nil {
			return canceled, err
		}
		canceled++
	}

	// the cursor advances past every examined key, active or cleared
	cursor := params.NextCursorIndex + uint64(len(entries))
	if err := im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{NextCursorIndex: &cursor}); err != nil {
		return canceled, err
	}

	return canceled, nil
}

func (im *impl) GetListing(c ctx.Ctx, item domain.ItemId) (*listing.Listing, error) {
	l, err := im.listingRepo.FindOne(c, item)
	if err == domain.ErrNotFound {
		// an unlisted item is a caller mistake, not a missing resource
		return nil, domain.ErrInvalidItem
	}
	return l, err
}

func (im *impl) GetListingPrice(c ctx.Ctx, item domain.ItemId) (*big.Int, error) {
	l, err := im.GetListing(c, item)
	if err != nil {
		return nil, err
	}
	return l.PriceAt(timeNow().Unix())
}

func (im *impl) FindAll(c ctx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
	res, err := im.listingRepo.FindAll(c, opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to listingRepo.FindAll")
		return nil, err
	}
	return res, nil
}
