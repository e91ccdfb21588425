package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/delivery"
	"github.com/scimarket/goapi/base/metrics"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/listing"
)

var met metrics.Service

type handler struct {
	listing listing.UseCase
}

func New(e *echo.Echo, lu listing.UseCase) {
	h := &handler{listing: lu}

	met = metrics.New("listing")

	g := e.Group("/listings")
	g.POST("", h.setListing)
	g.GET("", h.findAll)
	g.GET("/:itemId", h.getListing)
	g.GET("/:itemId/price", h.getListingPrice)
	g.POST("/:itemId/accept", h.acceptListing)
	g.DELETE("/:itemId", h.cancelListing)
	g.POST("/cancel-all", h.cancelAllListings)
}

func (h *handler) setListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := listing.SetListingPayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.listing.SetListing(ctx, p)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) findAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Seller domain.Address `query:"seller"`
		Offset int32          `query:"offset"`
		Limit  int32          `query:"limit"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	opts := []listing.FindAllOptionsFunc{}
	if !p.Seller.IsEmpty() {
		opts = append(opts, listing.WithSeller(p.Seller))
	}
	if p.Limit > 0 {
		opts = append(opts, listing.WithPagination(p.Offset, p.Limit))
	}

	res, err := h.listing.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	res, err := h.listing.GetListing(ctx, domain.ItemId(c.Param("itemId")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getListingPrice(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	price, err := h.listing.GetListingPrice(ctx, domain.ItemId(c.Param("itemId")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]string{
		"attoSci": price.String(),
		"sci":     domain.FormatSci(price),
	})
}

func (h *handler) acceptListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := listing.AcceptListingPayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	p.ItemId = domain.ItemId(c.Param("itemId"))
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.listing.AcceptListing(ctx, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	met.BumpSum("accept.count", 1, "itemId", string(p.ItemId))
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelListing(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	caller := domain.Address(c.QueryParam("caller"))
	if caller.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.listing.CancelListing(ctx, caller, domain.ItemId(c.Param("itemId"))); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelAllListings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
		Limit  int            `json:"limit" validate:"required,gt=0"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	canceled, err := h.listing.CancelAllListings(ctx, p.Caller, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int{"canceled": canceled})
}
