package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/keys"
	"github.com/scimarket/goapi/domain/listing"
	"github.com/scimarket/goapi/service/cache"
	"github.com/scimarket/goapi/service/cache/provider"
	"github.com/scimarket/goapi/service/cache/provider/compound"
	"github.com/scimarket/goapi/service/cache/provider/primitive"
	redisCache "github.com/scimarket/goapi/service/cache/provider/redis"
	"github.com/scimarket/goapi/service/query"
	"github.com/scimarket/goapi/service/redis"
)

type listingRepoImpl struct {
	q            query.Mongo
	listingCache cache.Service
}

// NewListingRepo creates the mongo-backed listing repo. The read path is
// fronted by an in-process freecache provider, plus redis when available.
func NewListingRepo(q query.Mongo, redisSvc redis.Service) listing.Repo {
	cacheProviders := []provider.Provider{
		primitive.NewPrimitive("listing", 16),
	}

	if redisSvc != nil {
		cacheProviders = append(cacheProviders, redisCache.NewRedis(redisSvc))
	}

	return &listingRepoImpl{
		q: q,
		listingCache: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   keys.PfxListing,
			Cache: compound.NewCompound(cacheProviders),
		}),
	}
}

func (im *listingRepoImpl) FindOne(c ctx.Ctx, item domain.ItemId) (*listing.Listing, error) {
	res := &listing.Listing{}

	if err := im.listingCache.GetByFunc(c, item.String(), res, func() (interface{}, error) {
		return im.findOne(c, item)
	}); err != nil {
		if err != domain.ErrNotFound {
			c.WithFields(log.Fields{
				"err":    err,
				"itemId": item,
			}).Error("listingCache.GetByFunc failed")
		}
		return nil, err
	}

	return res, nil
}

func (im *listingRepoImpl) findOne(c ctx.Ctx, item domain.ItemId) (*listing.Listing, error) {
	res := &listing.Listing{}
	err := im.q.FindOne(c, domain.TableListings, bson.M{"itemId": item}, res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Error("failed to q.FindOne")
		return nil, err
	}
	return res, nil
}

func (im *listingRepoImpl) makeQuery(opts ...listing.FindAllOptionsFunc) (bson.M, listing.FindAllOptions, error) {
	options, err := listing.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}

	qry := bson.M{}
	if options.Seller != nil {
		qry["seller"] = *options.Seller
	}
	return qry, options, nil
}

func (im *listingRepoImpl) FindAll(c ctx.Ctx, opts ...listing.FindAllOptionsFunc) ([]*listing.Listing, error) {
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

	res := []*listing.Listing{}
	if err := im.q.Search(c, domain.TableListings, offset, limit, "_id", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *listingRepoImpl) Upsert(c ctx.Ctx, l *listing.Listing) error {
	l.Seller = l.Seller.ToLower()
	if err := im.q.Upsert(c, domain.TableListings, bson.M{"itemId": l.ItemId}, l); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": l.ItemId,
		}).Error("failed to q.Upsert")
		return err
	}

	if err := im.listingCache.Del(c, l.ItemId.String()); err != nil && err != cache.ErrNotFound {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": l.ItemId,
		}).Warn("failed to listingCache.Del")
	}

	return nil
}

func (im *listingRepoImpl) Remove(c ctx.Ctx, item domain.ItemId) error {
	err := im.q.Remove(c, domain.TableListings, bson.M{"itemId": item})
	if err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Error("failed to q.Remove")
		return err
	}

	if err := im.listingCache.Del(c, item.String()); err != nil && err != cache.ErrNotFound {
		c.WithFields(log.Fields{
			"err":    err,
			"itemId": item,
		}).Warn("failed to listingCache.Del")
	}

	return nil
}
