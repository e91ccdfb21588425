package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/activity"
	"github.com/scimarket/goapi/service/query"
)

type activityRepoImpl struct {
	q query.Mongo
}

func NewActivityRepo(q query.Mongo) activity.Repo {
	return &activityRepoImpl{q}
}

func (im *activityRepoImpl) Insert(c ctx.Ctx, a *activity.Activity) error {
	if err := im.q.Insert(c, domain.TableActivities, a); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"activity": a,
		}).Error("failed to q.Insert")
		return err
	}
	return nil
}

func (im *activityRepoImpl) FindAll(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) ([]*activity.Activity, error) {
	options, err := activity.GetFindAllOptions(opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("activity.GetFindAllOptions")
		return nil, err
	}

	qry := bson.M{}
	if options.Book != nil {
		qry["book"] = *options.Book
	}
	if options.ItemId != nil {
		qry["itemId"] = *options.ItemId
	}

	offset := 0
	limit := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*activity.Activity{}
	if err := im.q.Search(c, domain.TableActivities, offset, limit, "-time", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}
