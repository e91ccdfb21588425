package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
	"github.com/scimarket/goapi/service/query"
)

type denyFlagRepoImpl struct {
	q query.Mongo
}

func NewDenyFlagRepo(q query.Mongo) marketplace.DenyFlagRepo {
	return &denyFlagRepoImpl{q}
}

func (im *denyFlagRepoImpl) Get(c ctx.Ctx, book marketplace.Book, account domain.Address) (bool, error) {
	res := &marketplace.DenyFlag{}
	err := im.q.FindOne(c, domain.TableDenyFlags, bson.M{
		"book":    book,
		"account": account.ToLower(),
	}, res)
	if err == query.ErrNotFound {
		// default allow
		return false, nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"book":    book,
			"account": account,
		}).Error("failed to q.FindOne")
		return false, err
	}
	return res.Denied, nil
}

func (im *denyFlagRepoImpl) Set(c ctx.Ctx, book marketplace.Book, account domain.Address, denied bool) error {
	flag := marketplace.DenyFlag{Book: book, Account: account.ToLower(), Denied: denied}
	if err := im.q.Upsert(c, domain.TableDenyFlags, bson.M{
		"book":    book,
		"account": flag.Account,
	}, &flag); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"book":    book,
			"account": account,
		}).Error("failed to q.Upsert")
		return err
	}
	return nil
}
