package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/activity"
	"github.com/scimarket/goapi/domain/ledger"
	"github.com/scimarket/goapi/domain/listing"
	"github.com/scimarket/goapi/domain/marketplace"
)

const (
	seller      = domain.Address("0xseller")
	buyer       = domain.Address("0xbuyer")
	beneficiary = domain.Address("0xbeneficiary")
	escrow      = domain.Address("0xescrow")
	superadmin  = domain.Address("0xsuper")
	ceoAddr     = domain.Address("0xceo")
	stranger    = domain.Address("0xmallory")

	item = domain.ItemId("item-1")
)

const fixedNow = int64(5000)

// in-memory fakes

type memParamsRepo struct {
	params map[marketplace.Book]*marketplace.Params
}

func newMemParamsRepo(p *marketplace.Params) *memParamsRepo {
	return &memParamsRepo{params: map[marketplace.Book]*marketplace.Params{p.Book: p}}
}

func (m *memParamsRepo) Get(c ctx.Ctx, b marketplace.Book) (*marketplace.Params, error) {
	p, ok := m.params[b]
	if !ok {
		return nil, domain.ErrNotFound
	}
	snapshot := *p
	return &snapshot, nil
}

func (m *memParamsRepo) Upsert(c ctx.Ctx, p *marketplace.Params) error {
	stored := *p
	m.params[p.Book] = &stored
	return nil
}

func (m *memParamsRepo) Patch(c ctx.Ctx, b marketplace.Book, patch marketplace.ParamsPatchable) error {
	p, ok := m.params[b]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Fee != nil {
		p.Fee = *patch.Fee
	}
	if patch.RoyaltyNumerator != nil {
		p.RoyaltyNumerator = *patch.RoyaltyNumerator
	}
	if patch.Paused != nil {
		p.Paused = *patch.Paused
	}
	if patch.NextCursorIndex != nil {
		p.NextCursorIndex = *patch.NextCursorIndex
	}
	if patch.FeesAccrued != nil {
		p.FeesAccrued = *patch.FeesAccrued
	}
	return nil
}

type memKeyLogRepo struct {
	keys map[marketplace.Book][]string
}

func newMemKeyLogRepo() *memKeyLogRepo {
	return &memKeyLogRepo{keys: map[marketplace.Book][]string{}}
}

func (m *memKeyLogRepo) Append(c ctx.Ctx, b marketplace.Book, key string) (uint64, error) {
	m.keys[b] = append(m.keys[b], key)
	return uint64(len(m.keys[b]) - 1), nil
}

func (m *memKeyLogRepo) Count(c ctx.Ctx, b marketplace.Book) (uint64, error) {
	return uint64(len(m.keys[b])), nil
}

func (m *memKeyLogRepo) Range(c ctx.Ctx, b marketplace.Book, from uint64, limit int) ([]marketplace.KeyLogEntry, error) {
	res := []marketplace.KeyLogEntry{}
	for i := from; i < uint64(len(m.keys[b])) && len(res) < limit; i++ {
		res = append(res, marketplace.KeyLogEntry{Book: b, Seq: i, Key: m.keys[b][i]})
	}
	return res, nil
}

type memDenyFlagRepo struct {
	flags map[string]bool
}

func newMemDenyFlagRepo() *memDenyFlagRepo {
	return &memDenyFlagRepo{flags: map[string]bool{}}
}

func (m *memDenyFlagRepo) Get(c ctx.Ctx, b marketplace.Book, account domain.Address) (bool, error) {
	return m.flags[string(b)+":"+account.ToLowerStr()], nil
}

func (m *memDenyFlagRepo) Set(c ctx.Ctx, b marketplace.Book, account domain.Address, denied bool) error {
	m.flags[string(b)+":"+account.ToLowerStr()] = denied
	return nil
}

type memActivityRepo struct {
	acts []*activity.Activity
}

func (m *memActivityRepo) Insert(c ctx.Ctx, a *activity.Activity) error {
	m.acts = append(m.acts, a)
	return nil
}

func (m *memActivityRepo) FindAll(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) ([]*activity.Activity, error) {
	return m.acts, nil
}

type memItem struct {
	state  ledger.ItemState
	minted bool
}

type memLedger struct {
	balances map[domain.Address]*big.Int
	items    map[domain.ItemId]*memItem
	roles    map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances: map[domain.Address]*big.Int{},
		items:    map[domain.ItemId]*memItem{},
		roles:    map[string]bool{},
	}
}

func (m *memLedger) setBalance(account domain.Address, amount int64) {
	m.balances[account.ToLower()] = big.NewInt(amount)
}

func (m *memLedger) balance(account domain.Address) *big.Int {
	if b, ok := m.balances[account.ToLower()]; ok {
		return b
	}
	return new(big.Int)
}

func (m *memLedger) mint(id domain.ItemId, owner domain.Address) *memItem {
	it := &memItem{
		state:  ledger.ItemState{ItemId: id, Owner: owner.ToLower(), Beneficiary: beneficiary},
		minted: true,
	}
	m.items[id] = it
	return it
}

func (m *memLedger) grantRole(role ledger.Role, account domain.Address) {
	m.roles[string(role)+":"+account.ToLowerStr()] = true
}

func (m *memLedger) BalanceOf(c ctx.Ctx, account domain.Address, asset domain.AssetId) (*big.Int, error) {
	if asset == domain.CurrencyAssetId {
		return new(big.Int).Set(m.balance(account)), nil
	}
	it, ok := m.items[domain.ItemId(asset)]
	if ok && it.state.Owner.Equals(account) {
		return big.NewInt(1), nil
	}
	return new(big.Int), nil
}

func (m *memLedger) Transfer(c ctx.Ctx, from, to domain.Address, asset domain.AssetId, amount *big.Int) error {
	if from.IsEmpty() || to.IsEmpty() {
		return domain.ErrInvalidAccount
	}
	if asset == domain.CurrencyAssetId {
		bal := m.balance(from)
		if bal.Cmp(amount) < 0 {
			return domain.ErrInsufficientBalance
		}
		m.balances[from.ToLower()] = new(big.Int).Sub(bal, amount)
		m.balances[to.ToLower()] = new(big.Int).Add(m.balance(to), amount)
		return nil
	}
	it, ok := m.items[domain.ItemId(asset)]
	if !ok || !it.state.Owner.Equals(from) {
		return domain.ErrInsufficientBalance
	}
	it.state.Owner = to.ToLower()
	return nil
}

func (m *memLedger) IsMinted(c ctx.Ctx, id domain.ItemId) (bool, error) {
	it, ok := m.items[id]
	return ok && it.minted, nil
}

func (m *memLedger) OwnerOf(c ctx.Ctx, id domain.ItemId) (domain.Address, error) {
	it, ok := m.items[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return it.state.Owner, nil
}

func (m *memLedger) IsBlocklisted(c ctx.Ctx, id domain.ItemId) (bool, error) {
	it, ok := m.items[id]
	return ok && it.state.IsBlocklisted, nil
}

func (m *memLedger) IsBridged(c ctx.Ctx, id domain.ItemId) (bool, error) {
	it, ok := m.items[id]
	return ok && it.state.IsBridged, nil
}

func (m *memLedger) BeneficiaryOf(c ctx.Ctx, id domain.ItemId) (domain.Address, error) {
	it, ok := m.items[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return it.state.Beneficiary, nil
}

func (m *memLedger) IsFullBenefit(c ctx.Ctx, id domain.ItemId) (bool, error) {
	it, ok := m.items[id]
	return ok && it.state.IsFullBenefit, nil
}

func (m *memLedger) WillUnsetFullBenefit(c ctx.Ctx, id domain.ItemId) (bool, error) {
	it, ok := m.items[id]
	return ok && it.state.WillUnsetFullBenefit, nil
}

func (m *memLedger) ClearFullBenefit(c ctx.Ctx, id domain.ItemId) error {
	it, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.state.IsFullBenefit = false
	it.state.WillUnsetFullBenefit = false
	return nil
}

func (m *memLedger) HasRole(c ctx.Ctx, role ledger.Role, account domain.Address) (bool, error) {
	return m.roles[string(role)+":"+account.ToLowerStr()], nil
}

type memListingRepo struct {
	listings map[domain.ItemId]*listing.Listing
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{listings: map[domain.ItemId]*listing.Listing{}}
}

func (m *memListingRepo) FindOne(c ctx.Ctx, id domain.ItemId) (*listing.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	snapshot := *l
	return &snapshot, nil
}

func (m *memListingRepo) FindAll(c ctx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
	options, err := listing.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}
	res := []*listing.Listing{}
	for _, l := range m.listings {
		if options.Seller != nil && !l.Seller.Equals(*options.Seller) {
			continue
		}
		snapshot := *l
		res = append(res, &snapshot)
	}
	return res, nil
}

func (m *memListingRepo) Upsert(c ctx.Ctx, l *listing.Listing) error {
	stored := *l
	m.listings[l.ItemId] = &stored
	return nil
}

func (m *memListingRepo) Remove(c ctx.Ctx, id domain.ItemId) error {
	if _, ok := m.listings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.listings, id)
	return nil
}

type ListingUseCaseTestSuite struct {
	suite.Suite

	ctx         ctx.Ctx
	listingRepo *memListingRepo
	paramsRepo  *memParamsRepo
	keyLogRepo  *memKeyLogRepo
	denyFlags   *memDenyFlagRepo
	activities  *memActivityRepo
	ledger      *memLedger
	uc          listing.UseCase
}

func (s *ListingUseCaseTestSuite) SetupTest() {
	timeNow = func() time.Time { return time.Unix(fixedNow, 0) }

	s.ctx = ctx.Background()
	s.listingRepo = newMemListingRepo()
	s.paramsRepo = newMemParamsRepo(&marketplace.Params{
		Book:             marketplace.BookListings,
		Fee:              "10",
		RoyaltyNumerator: 16,
		FeesAccrued:      "0",
		EscrowAccount:    escrow,
	})
	s.keyLogRepo = newMemKeyLogRepo()
	s.denyFlags = newMemDenyFlagRepo()
	s.activities = &memActivityRepo{}
	s.ledger = newMemLedger()

	s.ledger.setBalance(seller, 1000)
	s.ledger.setBalance(buyer, 5000)
	s.ledger.mint(item, seller)
	s.ledger.grantRole(ledger.RoleSuperadmin, superadmin)
	s.ledger.grantRole(ledger.RoleCEO, ceoAddr)

	s.uc = New(&ListingUseCaseCfg{
		ListingRepo:  s.listingRepo,
		ParamsRepo:   s.paramsRepo,
		KeyLogRepo:   s.keyLogRepo,
		DenyFlagRepo: s.denyFlags,
		ActivityRepo: s.activities,
		Ledger:       s.ledger,
	})
}

func (s *ListingUseCaseTestSuite) TearDownTest() {
	timeNow = time.Now
}

func (s *ListingUseCaseTestSuite) setEvergreenListing() {
	_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              seller,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "1000",
		PriceSlopeNumerator: "0",
		FeeAttoSci:          "10",
	})
	s.Require().Nil(err)
}

func (s *ListingUseCaseTestSuite) TestFixedPriceLifecycle() {
	s.setEvergreenListing()

	// item moved into custody and the fee was charged exactly once
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(escrow, owner)
	s.Equal(big.NewInt(990), s.ledger.balance(seller))
	params, _ := s.paramsRepo.Get(s.ctx, marketplace.BookListings)
	s.Equal("10", params.FeesAccrued)
	cnt, _ := s.keyLogRepo.Count(s.ctx, marketplace.BookListings)
	s.Equal(uint64(1), cnt)

	err := s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Require().Nil(err)

	// royalty 1000*16/256 = 62, seller gets the rest
	s.Equal(big.NewInt(990+938), s.ledger.balance(seller))
	s.Equal(big.NewInt(62), s.ledger.balance(beneficiary))
	s.Equal(big.NewInt(4000), s.ledger.balance(buyer))

	owner, _ = s.ledger.OwnerOf(s.ctx, item)
	s.Equal(buyer, owner)

	_, err = s.uc.GetListing(s.ctx, item)
	s.Equal(domain.ErrInvalidItem, err)

	s.Require().Len(s.activities.acts, 2)
	s.Equal(activity.TypeListingSet, s.activities.acts[0].Type)
	s.Equal(activity.TypeListingAccepted, s.activities.acts[1].Type)
	s.Equal("1000", s.activities.acts[1].PriceAttoSci)
}

func (s *ListingUseCaseTestSuite) TestUpdateKeepsCustodyAndRejectsFee() {
	s.setEvergreenListing()

	// price update with no fee attached
	l, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              seller,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "2000",
		PriceSlopeNumerator: "0",
	})
	s.Require().Nil(err)
	s.Equal("2000", l.StartPriceAttoSci)
	s.Equal(big.NewInt(990), s.ledger.balance(seller))

	// attaching a fee to an update must fail
	_, err = s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              seller,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "3000",
		PriceSlopeNumerator: "0",
		FeeAttoSci:          "10",
	})
	s.Equal(domain.ErrWrongListingFee, err)

	// the key log keeps a single slot across updates
	cnt, _ := s.keyLogRepo.Count(s.ctx, marketplace.BookListings)
	s.Equal(uint64(1), cnt)
}

func (s *ListingUseCaseTestSuite) TestSetListingValidation() {
	s.Run("wrong fee", func() {
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              item,
			Seller:              seller,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "9",
		})
		s.Equal(domain.ErrWrongListingFee, err)
	})

	s.Run("end time in the past", func() {
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              item,
			Seller:              seller,
			EndTimeSec:          fixedNow - 1,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Equal(domain.ErrInvalidEndTime, err)
	})

	s.Run("start not before end", func() {
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              item,
			Seller:              seller,
			StartTimeSec:        fixedNow + 100,
			EndTimeSec:          fixedNow + 100,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Equal(domain.ErrInvalidStartTime, err)
	})

	s.Run("unminted item", func() {
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              "item-unknown",
			Seller:              seller,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Equal(domain.ErrInvalidItem, err)
	})

	s.Run("blocklisted item", func() {
		it := s.ledger.mint("item-blocked", seller)
		it.state.IsBlocklisted = true
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              "item-blocked",
			Seller:              seller,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Equal(domain.ErrItemBlocklisted, err)
	})

	s.Run("paused book", func() {
		paused := true
		s.paramsRepo.Patch(s.ctx, marketplace.BookListings, marketplace.ParamsPatchable{Paused: &paused})
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              item,
			Seller:              seller,
			StartPriceAttoSci:   "1000",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Equal(domain.ErrPaused, err)
	})
}

func (s *ListingUseCaseTestSuite) TestSuperadminDelegation() {
	// creation fee is waived for superadmin
	_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              superadmin,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "1000",
		PriceSlopeNumerator: "0",
	})
	s.Require().Nil(err)
	s.Equal(big.NewInt(1000), s.ledger.balance(seller))

	// the seller opts out, superadmin may no longer act
	s.denyFlags.Set(s.ctx, marketplace.BookListings, seller, true)
	_, err = s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              superadmin,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "1500",
		PriceSlopeNumerator: "0",
	})
	s.Equal(domain.ErrSellerDeniedSuperadmin, err)
}

func (s *ListingUseCaseTestSuite) TestStrangerCannotList() {
	_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              stranger,
		ItemId:              item,
		Seller:              seller,
		StartPriceAttoSci:   "1000",
		PriceSlopeNumerator: "0",
		FeeAttoSci:          "10",
	})
	s.Equal(domain.ErrOnlySellerOrSuperadmin, err)
}

func (s *ListingUseCaseTestSuite) TestDecliningAuctionAccept() {
	s.ledger.setBalance(buyer, 20000)
	slope := new(big.Int).Lsh(big.NewInt(10), 64)
	_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              seller,
		ItemId:              item,
		Seller:              seller,
		StartTimeSec:        fixedNow - 200,
		EndTimeSec:          fixedNow + 800,
		StartPriceAttoSci:   "12000",
		PriceSlopeNumerator: slope.String(),
		FeeAttoSci:          "10",
	})
	s.Require().Nil(err)

	// the curve sits at 10000 one fifth of the way through
	price, err := s.uc.GetListingPrice(s.ctx, item)
	s.Require().Nil(err)
	s.Equal(big.NewInt(10000), price)

	// a cap below the current curve price must not settle
	err = s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "9999",
	})
	s.Equal(domain.ErrPriceExceedsLimit, err)

	err = s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "10000",
	})
	s.Require().Nil(err)
	s.Equal(big.NewInt(10000), s.ledger.balance(buyer))
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(buyer, owner)
}

func (s *ListingUseCaseTestSuite) TestAcceptWindow() {
	_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
		Caller:              seller,
		ItemId:              item,
		Seller:              seller,
		StartTimeSec:        fixedNow + 100,
		EndTimeSec:          fixedNow + 200,
		StartPriceAttoSci:   "1000",
		PriceSlopeNumerator: "0",
		FeeAttoSci:          "10",
	})
	s.Require().Nil(err)

	err = s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Equal(domain.ErrListingNotYetStarted, err)

	timeNow = func() time.Time { return time.Unix(fixedNow+300, 0) }
	err = s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Equal(domain.ErrListingExpired, err)
}

func (s *ListingUseCaseTestSuite) TestAcceptInsufficientBalance() {
	s.setEvergreenListing()
	s.ledger.setBalance(buyer, 999)

	err := s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Equal(domain.ErrInsufficientBalance, err)

	// nothing moved
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(escrow, owner)
	s.Equal(big.NewInt(999), s.ledger.balance(buyer))
}

func (s *ListingUseCaseTestSuite) TestAcceptUnwindsOnUnresolvableBeneficiary() {
	s.setEvergreenListing()
	s.ledger.items[item].state.Beneficiary = ""

	err := s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Equal(domain.ErrInvalidAccount, err)

	// the seller leg applied first and must have been reversed
	s.Equal(big.NewInt(990), s.ledger.balance(seller))
	s.Equal(big.NewInt(5000), s.ledger.balance(buyer))
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(escrow, owner)

	// the listing is still live and accepts once the royalty leg resolves
	s.ledger.items[item].state.Beneficiary = beneficiary
	err = s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Require().Nil(err)
	s.Equal(big.NewInt(990+938), s.ledger.balance(seller))
}

func (s *ListingUseCaseTestSuite) TestGetListingUnknownItem() {
	_, err := s.uc.GetListing(s.ctx, "item-unknown")
	s.Equal(domain.ErrInvalidItem, err)
	_, err = s.uc.GetListingPrice(s.ctx, "item-unknown")
	s.Equal(domain.ErrInvalidItem, err)
}

func (s *ListingUseCaseTestSuite) TestFullBenefitAccept() {
	s.setEvergreenListing()
	it := s.ledger.items[item]
	it.state.IsFullBenefit = true
	it.state.WillUnsetFullBenefit = true

	err := s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          item,
		MaxPriceAttoSci: "1000",
	})
	s.Require().Nil(err)

	// entire price to the beneficiary, both flags cleared
	s.Equal(big.NewInt(1000), s.ledger.balance(beneficiary))
	s.Equal(big.NewInt(990), s.ledger.balance(seller))
	s.False(it.state.IsFullBenefit)
	s.False(it.state.WillUnsetFullBenefit)
}

func (s *ListingUseCaseTestSuite) TestCancelListing() {
	s.setEvergreenListing()

	err := s.uc.CancelListing(s.ctx, stranger, item)
	s.Equal(domain.ErrOnlySellerSuperadminOrCEO, err)

	err = s.uc.CancelListing(s.ctx, seller, item)
	s.Require().Nil(err)

	// custody returned, fee not refunded
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(seller, owner)
	s.Equal(big.NewInt(990), s.ledger.balance(seller))

	_, err = s.uc.GetListing(s.ctx, item)
	s.Equal(domain.ErrInvalidItem, err)
}

func (s *ListingUseCaseTestSuite) TestCancelByCEOIgnoresDenyFlag() {
	s.setEvergreenListing()
	s.denyFlags.Set(s.ctx, marketplace.BookListings, seller, true)

	err := s.uc.CancelListing(s.ctx, ceoAddr, item)
	s.Require().Nil(err)
	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(seller, owner)
}

func (s *ListingUseCaseTestSuite) TestCancelAllListings() {
	items := []domain.ItemId{"bulk-1", "bulk-2", "bulk-3"}
	for _, id := range items {
		s.ledger.mint(id, seller)
		_, err := s.uc.SetListing(s.ctx, listing.SetListingPayload{
			Caller:              seller,
			ItemId:              id,
			Seller:              seller,
			StartPriceAttoSci:   "100",
			PriceSlopeNumerator: "0",
			FeeAttoSci:          "10",
		})
		s.Require().Nil(err)
	}

	// the middle listing settles before the pause
	err := s.uc.AcceptListing(s.ctx, listing.AcceptListingPayload{
		Caller:          buyer,
		Buyer:           buyer,
		ItemId:          "bulk-2",
		MaxPriceAttoSci: "100",
	})
	s.Require().Nil(err)

	// unwind requires the paused state and the CEO role
	_, err = s.uc.CancelAllListings(s.ctx, ceoAddr, 10)
	s.Equal(domain.ErrNotPaused, err)

	paused := true
	s.paramsRepo.Patch(s.ctx, marketplace.BookListings, marketplace.ParamsPatchable{Paused: &paused})

	_, err = s.uc.CancelAllListings(s.ctx, seller, 10)
	s.Equal(domain.ErrOnlyCEO, err)

	// first slice covers two log slots, one of them already settled
	canceled, err := s.uc.CancelAllListings(s.ctx, ceoAddr, 2)
	s.Require().Nil(err)
	s.Equal(1, canceled)

	canceled, err = s.uc.CancelAllListings(s.ctx, ceoAddr, 2)
	s.Require().Nil(err)
	s.Equal(1, canceled)

	// the log is exhausted, further calls are no-ops
	canceled, err = s.uc.CancelAllListings(s.ctx, ceoAddr, 2)
	s.Require().Nil(err)
	s.Equal(0, canceled)

	for _, id := range []domain.ItemId{"bulk-1", "bulk-3"} {
		owner, _ := s.ledger.OwnerOf(s.ctx, id)
		s.Equal(seller, owner)
	}
	owner, _ := s.ledger.OwnerOf(s.ctx, "bulk-2")
	s.Equal(buyer, owner)
}

func (s *ListingUseCaseTestSuite) TestRelistAfterSweepAppendsFreshSlot() {
	s.setEvergreenListing()

	paused := true
	s.paramsRepo.Patch(s.ctx, marketplace.BookListings, marketplace.ParamsPatchable{Paused: &paused})
	canceled, err := s.uc.CancelAllListings(s.ctx, ceoAddr, 10)
	s.Require().Nil(err)
	s.Equal(1, canceled)

	paused = false
	s.paramsRepo.Patch(s.ctx, marketplace.BookListings, marketplace.ParamsPatchable{Paused: &paused})

	// re-listing appends a fresh log slot past the cursor
	s.setEvergreenListing()
	cnt, _ := s.keyLogRepo.Count(s.ctx, marketplace.BookListings)
	s.Equal(uint64(2), cnt)

	paused = true
	s.paramsRepo.Patch(s.ctx, marketplace.BookListings, marketplace.ParamsPatchable{Paused: &paused})
	canceled, err = s.uc.CancelAllListings(s.ctx, ceoAddr, 10)
	s.Require().Nil(err)
	s.Equal(1, canceled)

	owner, _ := s.ledger.OwnerOf(s.ctx, item)
	s.Equal(seller, owner)
}

func TestListingUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(ListingUseCaseTestSuite))
}
