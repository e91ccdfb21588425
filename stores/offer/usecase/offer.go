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
	"github.com/scimarket/goapi/domain/marketplace"
	"github.com/scimarket/goapi/domain/offer"
)

var timeNow = time.Now

const book = marketplace.BookOffers

type OfferUseCaseCfg struct {
	OfferRepo    offer.Repo
	ParamsRepo   marketplace.ParamsRepo
	KeyLogRepo   marketplace.KeyLogRepo
	DenyFlagRepo marketplace.DenyFlagRepo
	ActivityRepo activity.Repo
	Ledger       ledger.Ledger
}

type impl struct {
	offerRepo    offer.Repo
	paramsRepo   marketplace.ParamsRepo
	keyLogRepo   marketplace.KeyLogRepo
	denyFlagRepo marketplace.DenyFlagRepo
	activityRepo activity.Repo
	ledger       ledger.Ledger
}

func New(cfg *OfferUseCaseCfg) offer.UseCase {
	return &impl{
		offerRepo:    cfg.OfferRepo,
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
	// bids on the currency asset itself are meaningless
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

func (im *impl) emit(c ctx.Ctx, typ activity.Type, o *offer.Offer, seller domain.Address, price string) {
	act := &activity.Activity{
		Id:           uuid.New().String(),
		Book:         book,
		Type:         typ,
		ItemId:       o.ItemId,
		Seller:       seller,
		Buyer:        o.Buyer,
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

func (im *impl) SetOffer(c ctx.Ctx, p offer.SetOfferPayload) (*offer.Offer, error) {
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

	price, err := domain.ToBigInt(p.PriceAttoSci)
	if err != nil || price.Sign() <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	now := timeNow().Unix()
	if p.EndTimeSec != 0 && p.EndTimeSec <= now {
		return nil, domain.ErrInvalidEndTime
	}

	fee := new(big.Int)
	if p.FeeAttoSci != "" {
		if fee, err = domain.ToBigInt(p.FeeAttoSci); err != nil {
			return nil, domain.ErrWrongOfferFee
		}
	}

	actor, err := im.resolveActor(c, p.Caller)
	if err != nil {
		return nil, err
	}
	buyer := p.Buyer.ToLower()
	denied, err := im.denyFlagRepo.Get(c, book, buyer)
	if err != nil {
		return nil, err
	}
	if err := marketplace.Authorize(actor, buyer, denied, marketplace.PrincipalBuyer); err != nil {
		return nil, err
	}

	id := offer.Id{Buyer: buyer, ItemId: p.ItemId}
	prior, err := im.offerRepo.FindOne(c, id)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	tx := ledger.NewTx(im.ledger)
	if prior == nil {
		if err := im.stageEscrow(c, actor, id, price, fee, params, tx); err != nil {
			return nil, err
		}
	} else {
		if fee.Sign() != 0 {
			return nil, domain.ErrWrongOfferFee
		}
		if err := im.stageAdjustment(c, buyer, prior, price, params, tx); err != nil {
			return nil, err
		}
	}
	if err := tx.Apply(c); err != nil {
		return nil, err
	}

	o := &offer.Offer{
		Buyer:        buyer,
		ItemId:       p.ItemId,
		EndTimeSec:   p.EndTimeSec,
		PriceAttoSci: price.String(),
		UpdatedAt:    timeNow().UTC(),
	}
	if prior != nil {
		o.CreatedAt = prior.CreatedAt
	} else {
		o.CreatedAt = o.UpdatedAt
	}

	if fee.Sign() > 0 {
		if err := im.accrueFee(c, fee); err != nil {
			tx.Rollback(c)
			return nil, err
		}
	}
	if err := im.offerRepo.Upsert(c, o); err != nil {
		tx.Rollback(c)
		if fee.Sign() > 0 {
			im.accrueFee(c, new(big.Int).Neg(fee))
		}
		return nil, err
	}

	im.emit(c, activity.TypeOfferSet, o, "", o.PriceAttoSci)
	return o, nil
}

// stageEscrow validates the creation fee, stages the fee and full-bid
// escrow moves and appends the (buyer, item) key to the book's key log.
// Re-creations append a fresh slot so the unwind cursor, which only moves
// forward, still reaches them.
func (im *impl) stageEscrow(c ctx.Ctx, actor marketplace.Actor, id offer.Id, price, fee *big.Int, params *marketplace.Params, tx *ledger.Tx) error {
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
		return domain.ErrWrongOfferFee
	}

	tx.Transfer(id.Buyer, params.EscrowAccount, domain.CurrencyAssetId, price)
	if fee.Sign() > 0 {
		tx.Transfer(actor.Addr, params.EscrowAccount, domain.CurrencyAssetId, fee)
	}

	// an entry whose record is gone is skipped by the unwind, so appending
	// before any funds move cannot strand anything
	if _, err := im.keyLogRepo.Append(c, book, id.LogKey()); err != nil {
		return err
	}
	return nil
}

// stageAdjustment moves only the signed difference between the new and old
// bid, keeping the escrowed balance exactly equal to the current price.
func (im *impl) stageAdjustment(c ctx.Ctx, buyer domain.Address, prior *offer.Offer, price *big.Int, params *marketplace.Params, tx *ledger.Tx) error {
	oldPrice, err := prior.Price()
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"price": prior.PriceAttoSci,
		}).Error("malformed price in offer record")
		return err
	}

	diff := new(big.Int).Sub(price, oldPrice)
	switch diff.Sign() {
	case 1:
		tx.Transfer(buyer, params.EscrowAccount, domain.CurrencyAssetId, diff)
	case -1:
		tx.Transfer(params.EscrowAccount, buyer, domain.CurrencyAssetId, diff.Neg(diff))
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

func (im *impl) AcceptOffer(c ctx.Ctx, p offer.AcceptOfferPayload) error {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if params.Paused {
		return domain.ErrPaused
	}

	id := offer.Id{Buyer: p.Buyer.ToLower(), ItemId: p.ItemId}
	o, err := im.offerRepo.FindOne(c, id)
	if err == domain.ErrNotFound {
		return domain.ErrInvalidOffer
	} else if err != nil {
		return err
	}

	price, err := o.Price()
	if err != nil {
		return err
	}
	claimed, err := domain.ToBigInt(p.PriceAttoSci)
	if err != nil {
		return domain.ErrInvalidPrice
	}
	// the seller accepts a specific bid; a stale price means the bid
	// changed under them and must not settle
	if price.Cmp(claimed) != 0 {
		return domain.ErrWrongPrice
	}

	now := timeNow().Unix()
	if o.EndTimeSec != 0 && now > o.EndTimeSec {
		return domain.ErrOfferExpired
	}

	actor, err := im.resolveActor(c, p.Caller)
	if err != nil {
		return err
	}
	seller := p.Seller.ToLower()
	denied, err := im.denyFlagRepo.Get(c, book, seller)
	if err != nil {
		return err
	}
	if err := marketplace.Authorize(actor, seller, denied, marketplace.PrincipalSeller); err != nil {
		return err
	}

	owner, err := im.ledger.OwnerOf(c, p.ItemId)
	if err != nil {
		return err
	}
	if !owner.Equals(seller) {
		return domain.ErrInvalidItem
	}

	isFullBenefit, err := im.ledger.IsFullBenefit(c, p.ItemId)
	if err != nil {
		return err
	}
	willUnset, err := im.ledger.WillUnsetFullBenefit(c, p.ItemId)
	if err != nil {
		return err
	}
	split := marketplace.Settle(price, params.RoyaltyNumerator, isFullBenefit, willUnset)

	// every payout leg is staged before anything moves, so an unresolvable
	// beneficiary or a short escrow unwinds to the pre-accept state
	tx := ledger.NewTx(im.ledger)
	if split.Seller.Sign() > 0 {
		tx.Transfer(params.EscrowAccount, seller, domain.CurrencyAssetId, split.Seller)
	}
	if split.Beneficiary.Sign() > 0 {
		beneficiary, err := im.ledger.BeneficiaryOf(c, p.ItemId)
		if err != nil {
			return err
		}
		tx.Transfer(params.EscrowAccount, beneficiary, domain.CurrencyAssetId, split.Beneficiary)
	}
	tx.Transfer(seller, o.Buyer, p.ItemId.AssetId(), domain.Big1)
	if err := tx.Apply(c); err != nil {
		return err
	}

	if err := im.offerRepo.Remove(c, id); err != nil {
		tx.Rollback(c)
		return err
	}
	if split.ClearFullBenefit {
		if err := im.ledger.ClearFullBenefit(c, p.ItemId); err != nil {
			// the sale has settled, a failed flag clear must not unwind it
			c.WithFields(log.Fields{
				"err":    err,
				"itemId": p.ItemId,
			}).Error("failed to ledger.ClearFullBenefit")
		}
	}

	im.emit(c, activity.TypeOfferAccepted, o, seller, price.String())
	return nil
}

func (im *impl) CancelOffer(c ctx.Ctx, caller domain.Address, id offer.Id) error {
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if params.Paused {
		return domain.ErrPaused
	}

	o, err := im.offerRepo.FindOne(c, offer.Id{Buyer: id.Buyer.ToLower(), ItemId: id.ItemId})
	if err == domain.ErrNotFound {
		return domain.ErrInvalidOffer
	} else if err != nil {
		return err
	}

	actor, err := im.resolveActor(c, caller)
	if err != nil {
		return err
	}
	denied, err := im.denyFlagRepo.Get(c, book, o.Buyer)
	if err != nil {
		return err
	}
	if err := marketplace.AuthorizeCancel(actor, o.Buyer, denied, marketplace.PrincipalBuyer); err != nil {
		return err
	}

	return im.unwind(c, params, o)
}

// unwind refunds the full escrowed amount to the buyer and clears the
// record. Shared by the normal cancel path and the paused bulk unwind.
func (im *impl) unwind(c ctx.Ctx, params *marketplace.Params, o *offer.Offer) error {
	price, err := o.Price()
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"price": o.PriceAttoSci,
		}).Error("malformed price in offer record")
		return err
	}
	tx := ledger.NewTx(im.ledger)
	tx.Transfer(params.EscrowAccount, o.Buyer, domain.CurrencyAssetId, price)
	if err := tx.Apply(c); err != nil {
		return err
	}
	if err := im.offerRepo.Remove(c, o.ToId()); err != nil {
		tx.Rollback(c)
		return err
	}
	im.emit(c, activity.TypeOfferCanceled, o, "", price.String())
	return nil
}

func (im *impl) CancelAllOffers(c ctx.Ctx, caller domain.Address, limit int) (int, error) {
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
		id, ok := parseLogKey(entry.Key)
		if !ok {
			c.WithFields(log.Fields{
				"key": entry.Key,
			}).Warn("malformed key log entry")
			continue
		}
		o, err := im.offerRepo.FindOne(c, id)
		if err == domain.ErrNotFound {
			continue
		} else if err != nil {
			return canceled, err
		}
		if err := im.unwind(c, params, o); err != nil {
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

func (im *impl) GetOffer(c ctx.Ctx, id offer.Id) (*offer.Offer, error) {
	o, err := im.offerRepo.FindOne(c, offer.Id{Buyer: id.Buyer.ToLower(), ItemId: id.ItemId})
	if err == domain.ErrNotFound {
		// a missing bid is a caller mistake, not a missing resource
		return nil, domain.ErrInvalidOffer
	}
	return o, err
}

func (im *impl) FindAll(c ctx.Ctx, opts ...offer.FindAllOptionsFunc) ([]*offer.Offer, error) {
	res, err := im.offerRepo.FindAll(c, opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to offerRepo.FindAll")
		return nil, err
	}
	return res, nil
}

func parseLogKey(key string) (offer.Id, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return offer.Id{
				Buyer:  domain.Address(key[:i]),
				ItemId: domain.ItemId(key[i+1:]),
			}, i > 0 && i < len(key)-1
		}
	}
	return offer.Id{}, false
}
