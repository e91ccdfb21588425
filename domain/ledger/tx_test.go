package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/domain"
)

type txLedger struct {
	Ledger

	balances map[domain.Address]*big.Int
	calls    int

	// failOn rejects any transfer into the given account
	failOn domain.Address
}

func newTxLedger() *txLedger {
	return &txLedger{balances: map[domain.Address]*big.Int{}}
}

func (m *txLedger) setBalance(account domain.Address, amount int64) {
	m.balances[account] = big.NewInt(amount)
}

func (m *txLedger) balance(account domain.Address) *big.Int {
	if b, ok := m.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (m *txLedger) Transfer(c ctx.Ctx, from, to domain.Address, asset domain.AssetId, amount *big.Int) error {
	m.calls++
	if to == m.failOn {
		return domain.ErrInvalidAccount
	}
	bal := m.balance(from)
	if bal.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	m.balances[from] = new(big.Int).Sub(bal, amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

type TxTestSuite struct {
	suite.Suite

	ctx    ctx.Ctx
	ledger *txLedger
}

func (s *TxTestSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.ledger = newTxLedger()
	s.ledger.setBalance("0xalice", 100)
}

func (s *TxTestSuite) TestApplyMovesEveryLeg() {
	tx := NewTx(s.ledger)
	tx.Transfer("0xalice", "0xbob", domain.CurrencyAssetId, big.NewInt(60))
	tx.Transfer("0xbob", "0xcarol", domain.CurrencyAssetId, big.NewInt(10))

	s.Require().Nil(tx.Apply(s.ctx))
	s.Equal(big.NewInt(40), s.ledger.balance("0xalice"))
	s.Equal(big.NewInt(50), s.ledger.balance("0xbob"))
	s.Equal(big.NewInt(10), s.ledger.balance("0xcarol"))
}

func (s *TxTestSuite) TestApplyRevertsAppliedLegsOnFailure() {
	s.ledger.failOn = "0xcarol"

	tx := NewTx(s.ledger)
	tx.Transfer("0xalice", "0xbob", domain.CurrencyAssetId, big.NewInt(60))
	tx.Transfer("0xalice", "0xcarol", domain.CurrencyAssetId, big.NewInt(10))

	err := tx.Apply(s.ctx)
	s.Equal(domain.ErrInvalidAccount, err)
	s.Equal(big.NewInt(100), s.ledger.balance("0xalice"))
	s.Equal(0, s.ledger.balance("0xbob").Sign())
}

func (s *TxTestSuite) TestRollbackReversesAnAppliedTx() {
	tx := NewTx(s.ledger)
	tx.Transfer("0xalice", "0xbob", domain.CurrencyAssetId, big.NewInt(60))
	s.Require().Nil(tx.Apply(s.ctx))

	tx.Rollback(s.ctx)
	s.Equal(big.NewInt(100), s.ledger.balance("0xalice"))
	s.Equal(0, s.ledger.balance("0xbob").Sign())

	// a second rollback has nothing left to reverse
	calls := s.ledger.calls
	tx.Rollback(s.ctx)
	s.Equal(calls, s.ledger.calls)
}

func (s *TxTestSuite) TestStagedAmountIsACopy() {
	amount := big.NewInt(60)
	tx := NewTx(s.ledger)
	tx.Transfer("0xalice", "0xbob", domain.CurrencyAssetId, amount)
	amount.SetInt64(999)

	s.Require().Nil(tx.Apply(s.ctx))
	s.Equal(big.NewInt(60), s.ledger.balance("0xbob"))
}

func TestTxTestSuite(t *testing.T) {
	suite.Run(t, new(TxTestSuite))
}
