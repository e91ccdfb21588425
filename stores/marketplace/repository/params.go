package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/database/mongoclient"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
	"github.com/scimarket/goapi/service/query"
)

type paramsRepoImpl struct {
	q query.Mongo
}

func NewParamsRepo(q query.Mongo) marketplace.ParamsRepo {
	return &paramsRepoImpl{q}
}

func (im *paramsRepoImpl) Get(c ctx.Ctx, book marketplace.Book) (*marketplace.Params, error) {
	res := &marketplace.Params{}
	err := im.q.FindOne(c, domain.TableBookParams, bson.M{"book": book}, res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
		}).Error("failed to q.FindOne")
		return nil, err
	}
	return res, nil
}

func (im *paramsRepoImpl) Upsert(c ctx.Ctx, params *marketplace.Params) error {
	if err := im.q.Upsert(c, domain.TableBookParams, bson.M{"book": params.Book}, params); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": params.Book,
		}).Error("failed to q.Upsert")
		return err
	}
	return nil
}

func (im *paramsRepoImpl) Patch(c ctx.Ctx, book marketplace.Book, patchable marketplace.ParamsPatchable) error {
	patchBson, err := mongoclient.MakeBsonM(patchable)
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	err = im.q.Patch(c, domain.TableBookParams, bson.M{"book": book}, patchBson)
	if err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
		}).Error("failed to q.Patch")
		return err
	}
	return nil
}
