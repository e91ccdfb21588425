package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/offer"
	"github.com/scimarket/goapi/service/query"
)

type offerRepoImpl struct {
	q query.Mongo
}

func NewOfferRepo(q query.Mongo) offer.Repo {
	return &offerRepoImpl{q}
}

func (im *offerRepoImpl) FindOne(c ctx.Ctx, id offer.Id) (*offer.Offer, error) {
	res := &offer.Offer{}
	err := im.q.FindOne(c, domain.TableOffers, bson.M{
		"buyer":  id.Buyer.ToLower(),
		"itemId": id.ItemId,
	}, res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"buyer":  id.Buyer,
			"itemId": id.ItemId,
		}).Error("failed to q.FindOne")
		return nil, err
	}
	return res, nil
}

func (im *offerRepoImpl) makeQuery(opts ...offer.FindAllOptionsFunc) (bson.M, offer.FindAllOptions, error) {
	options, err := offer.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}

	qry := bson.M{}
	if options.Buyer != nil {
		qry["buyer"] = *options.Buyer
	}
	if options.ItemId != nil {
		qry["itemId"] = *options.ItemId
	}
	return qry, options, nil
}

func (im *offerRepoImpl) FindAll(c ctx.Ctx, opts ...offer.FindAllOptionsFunc) ([]*offer.Offer, error) {
	qry, options, err := im.makeQuery(opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("im.makeQuery")
		return nil, err
	}

	offset := 0
	limit := 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*offer.Offer{}
	if err := im.q.Search(c, domain.TableOffers, offset, limit, "_id", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *offerRepoImpl) Upsert(c ctx.Ctx, o *offer.Offer) error {
	o.Buyer = o.Buyer.ToLower()
	if err := im.q.Upsert(c, domain.TableOffers, bson.M{
		"buyer":  o.Buyer,
		"itemId": o.ItemId,
	}, o); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"buyer":  o.Buyer,
			"itemId": o.ItemId,
		}).Error("failed to q.Upsert")
		return err
	}
	return nil
}

func (im *offerRepoImpl) Remove(c ctx.Ctx, id offer.Id) error {
	err := im.q.Remove(c, domain.TableOffers, bson.M{
		"buyer":  id.Buyer.ToLower(),
		"itemId": id.ItemId,
	})
	if err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"buyer":  id.Buyer,
			"itemId": id.ItemId,
		}).Error("failed to q.Remove")
		return err
	}
	return nil
}
