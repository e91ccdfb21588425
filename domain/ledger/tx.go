package ledger

import (
	"math/big"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
)

type move struct {
	from   domain.Address
	to     domain.Address
	asset  domain.AssetId
	amount *big.Int
}

// Tx stages ledger moves so a multi-step settlement applies all of them or
// none. Transfer only records the move; Apply executes the staged moves in
// order, and the first failure reverses every move already applied before
// returning its error. Rollback reverses an applied Tx when a later record
// write fails.
type Tx struct {
	ledger  Ledger
	staged  []move
	applied []move
}

func NewTx(l Ledger) *Tx {
	return &Tx{ledger: l}
}

func (tx *Tx) Transfer(from, to domain.Address, asset domain.AssetId, amount *big.Int) {
	tx.staged = append(tx.staged, move{
		from:   from,
		to:     to,
		asset:  asset,
		amount: new(big.Int).Set(amount),
	})
}

func (tx *Tx) Apply(c ctx.Ctx) error {
	for _, m := range tx.staged {
		if err := tx.ledger.Transfer(c, m.from, m.to, m.asset, m.amount); err != nil {
			tx.revert(c)
			return err
		}
		tx.applied = append(tx.applied, m)
	}
	return nil
}

func (tx *Tx) Rollback(c ctx.Ctx) {
	tx.revert(c)
}

func (tx *Tx) revert(c ctx.Ctx) {
	// reverse order, so custody and funds return along the same path
	for i := len(tx.applied) - 1; i >= 0; i-- {
		m := tx.applied[i]
		if err := tx.ledger.Transfer(c, m.to, m.from, m.asset, m.amount); err != nil {
			c.WithFields(log.Fields{
				"err":   err,
				"from":  m.from,
				"to":    m.to,
				"asset": m.asset,
			}).Error("failed to reverse ledger move")
		}
	}
	tx.applied = nil
}
