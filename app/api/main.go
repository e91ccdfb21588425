package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/database/mongoclient"
	"github.com/scimarket/goapi/base/database/redisclient"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/base/metrics"
	bValidator "github.com/scimarket/goapi/base/validator"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
	mmiddleware "github.com/scimarket/goapi/middleware"
	ledger_service "github.com/scimarket/goapi/service/ledger"
	"github.com/scimarket/goapi/service/query"
	"github.com/scimarket/goapi/service/redis"
	activity_delivery "github.com/scimarket/goapi/stores/activity/delivery/http"
	activity_repository "github.com/scimarket/goapi/stores/activity/repository"
	activity_usecase "github.com/scimarket/goapi/stores/activity/usecase"
	hc_delivery "github.com/scimarket/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/scimarket/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/scimarket/goapi/stores/healthcheck/usecase"
	listing_delivery "github.com/scimarket/goapi/stores/listing/delivery/http"
	listing_repository "github.com/scimarket/goapi/stores/listing/repository"
	listing_usecase "github.com/scimarket/goapi/stores/listing/usecase"
	marketplace_delivery "github.com/scimarket/goapi/stores/marketplace/delivery/http"
	marketplace_repository "github.com/scimarket/goapi/stores/marketplace/repository"
	marketplace_usecase "github.com/scimarket/goapi/stores/marketplace/usecase"
	offer_delivery "github.com/scimarket/goapi/stores/offer/delivery/http"
	offer_repository "github.com/scimarket/goapi/stores/offer/repository"
	offer_usecase "github.com/scimarket/goapi/stores/offer/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

// seedBookParams inserts the initial parameter record of a book unless one
// already exists. Later mutations go through the admin endpoints only.
func seedBookParams(context ctx.Ctx, repo marketplace.ParamsRepo, book marketplace.Book, prefix string) {
	if _, err := repo.Get(context, book); err == nil {
		return
	} else if err != domain.ErrNotFound {
		context.WithField("err", err).Panic("failed to load book params")
	}

	params := &marketplace.Params{
		Book:             book,
		Fee:              viper.GetString(prefix + ".fee"),
		RoyaltyNumerator: viper.GetUint32(prefix + ".royaltyNumerator"),
		FeesAccrued:      "0",
		EscrowAccount:    domain.Address(viper.GetString(prefix + ".escrowAccount")).ToLower(),
	}
	if err := repo.Upsert(context, params); err != nil {
		context.WithField("err", err).Panic("failed to seed book params")
	}
	context.WithField("book", book).Info("seeded book params")
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	listingRepo := listing_repository.NewListingRepo(q, redisCache)
	offerRepo := offer_repository.NewOfferRepo(q)
	paramsRepo := marketplace_repository.NewParamsRepo(q)
	keyLogRepo := marketplace_repository.NewKeyLogRepo(q)
	denyFlagRepo := marketplace_repository.NewDenyFlagRepo(q)
	activityRepo := activity_repository.NewActivityRepo(q)
	ledgerService := ledger_service.New(q)

	seedBookParams(context, paramsRepo, marketplace.BookListings, "books.listings")
	seedBookParams(context, paramsRepo, marketplace.BookOffers, "books.offers")

	hc := hc_usecase.New(hcRepo)
	listing := listing_usecase.New(&listing_usecase.ListingUseCaseCfg{
		ListingRepo:  listingRepo,
		ParamsRepo:   paramsRepo,
		KeyLogRepo:   keyLogRepo,
		DenyFlagRepo: denyFlagRepo,
		ActivityRepo: activityRepo,
		Ledger:       ledgerService,
	})
	offer := offer_usecase.New(&offer_usecase.OfferUseCaseCfg{
		OfferRepo:    offerRepo,
		ParamsRepo:   paramsRepo,
		KeyLogRepo:   keyLogRepo,
		DenyFlagRepo: denyFlagRepo,
		ActivityRepo: activityRepo,
		Ledger:       ledgerService,
	})
	marketplaceUC := marketplace_usecase.New(&marketplace_usecase.MarketplaceUseCaseCfg{
		ParamsRepo:   paramsRepo,
		DenyFlagRepo: denyFlagRepo,
		Ledger:       ledgerService,
	})
	activityUC := activity_usecase.New(&activity_usecase.ActivityUseCaseCfg{
		ActivityRepo: activityRepo,
	})

	hc_delivery.New(e, hc)
	listing_delivery.New(e, listing)
	offer_delivery.New(e, offer)
	marketplace_delivery.New(e, marketplaceUC)
	activity_delivery.New(e, activityUC)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
