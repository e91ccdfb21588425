package usecase

import (
	"math/big"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/ledger"
	"github.com/scimarket/goapi/domain/marketplace"
)

type MarketplaceUseCaseCfg struct {
	ParamsRepo   marketplace.ParamsRepo
	DenyFlagRepo marketplace.DenyFlagRepo
	Ledger       ledger.Ledger
}

type impl struct {
	paramsRepo   marketplace.ParamsRepo
	denyFlagRepo marketplace.DenyFlagRepo
	ledger       ledger.Ledger
}

func New(cfg *MarketplaceUseCaseCfg) marketplace.UseCase {
	return &impl{
		paramsRepo:   cfg.ParamsRepo,
		denyFlagRepo: cfg.DenyFlagRepo,
		ledger:       cfg.Ledger,
	}
}

func (im *impl) requireRole(c ctx.Ctx, role ledger.Role, caller domain.Address, roleErr error) error {
	has, err := im.ledger.HasRole(c, role, caller)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"role":    role,
			"account": caller,
		}).Error("failed to ledger.HasRole")
		return err
	}
	if !has {
		return roleErr
	}
	return nil
}

func (im *impl) GetParams(c ctx.Ctx, book marketplace.Book) (*marketplace.Params, error) {
	return im.paramsRepo.Get(c, book)
}

func (im *impl) SetFee(c ctx.Ctx, caller domain.Address, book marketplace.Book, fee string) error {
	if err := im.requireRole(c, ledger.RoleCFO, caller, domain.ErrOnlyCFO); err != nil {
		return err
	}
	if _, err := domain.ToBigInt(fee); err != nil {
		return domain.ErrInvalidNumberFormat
	}
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{Fee: &fee})
}

func (im *impl) SetRoyaltyNumerator(c ctx.Ctx, caller domain.Address, book marketplace.Book, numerator uint32) error {
	if err := im.requireRole(c, ledger.RoleCFO, caller, domain.ErrOnlyCFO); err != nil {
		return err
	}
	if numerator > marketplace.RoyaltyDenominator {
		return domain.ErrBadParamInput
	}
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{RoyaltyNumerator: &numerator})
}

func (im *impl) Pause(c ctx.Ctx, caller domain.Address, book marketplace.Book) error {
	if err := im.requireRole(c, ledger.RoleCEO, caller, domain.ErrOnlyCEO); err != nil {
		return err
	}
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if params.Paused {
		return domain.ErrPaused
	}
	paused := true
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{Paused: &paused})
}

func (im *impl) Unpause(c ctx.Ctx, caller domain.Address, book marketplace.Book) error {
	if err := im.requireRole(c, ledger.RoleCEO, caller, domain.ErrOnlyCEO); err != nil {
		return err
	}
	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	if !params.Paused {
		return domain.ErrNotPaused
	}
	// the unwind cursor survives the resume; records created afterwards
	// append fresh key log slots past it
	paused := false
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{Paused: &paused})
}

func (im *impl) Withdraw(c ctx.Ctx, caller, to domain.Address, book marketplace.Book, amount string) error {
	if err := im.requireRole(c, ledger.RoleCFO, caller, domain.ErrOnlyCFO); err != nil {
		return err
	}

	value, err := domain.ToBigInt(amount)
	if err != nil || value.Sign() <= 0 {
		return domain.ErrInvalidNumberFormat
	}

	params, err := im.paramsRepo.Get(c, book)
	if err != nil {
		return err
	}
	accrued, err := domain.ToBigInt(params.FeesAccrued)
	if err != nil {
		accrued = new(big.Int)
	}
	// escrowed bid funds live on the same account and must never be
	// withdrawable as fees
	if value.Cmp(accrued) > 0 {
		return domain.ErrValueExceedsBalance
	}

	if err := im.ledger.Transfer(c, params.EscrowAccount, to, domain.CurrencyAssetId, value); err != nil {
		return err
	}

	remaining := new(big.Int).Sub(accrued, value).String()
	return im.paramsRepo.Patch(c, book, marketplace.ParamsPatchable{FeesAccrued: &remaining})
}

func (im *impl) SetDenyDelegate(c ctx.Ctx, caller domain.Address, book marketplace.Book, denied bool) error {
	// the opt-out is personal, no role may flip it for someone else
	if caller.IsEmpty() {
		return domain.ErrOnlyAccountItself
	}
	if err := im.denyFlagRepo.Set(c, book, caller, denied); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"book":    book,
			"account": caller,
		}).Error("failed to denyFlagRepo.Set")
		return err
	}
	return nil
}

func (im *impl) IsDelegateDenied(c ctx.Ctx, book marketplace.Book, account domain.Address) (bool, error) {
	return im.denyFlagRepo.Get(c, book, account)
}
