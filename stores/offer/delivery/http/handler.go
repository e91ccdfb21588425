package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/delivery"
	"github.com/scimarket/goapi/base/metrics"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/offer"
	"github.com/scimarket/goapi/middleware"
)

var met metrics.Service

type handler struct {
	offer offer.UseCase
}

func New(e *echo.Echo, ou offer.UseCase) {
	h := &handler{offer: ou}

	met = metrics.New("offer")

	g := e.Group("/offers")
	g.POST("", h.setOffer)
	g.GET("", h.findAll)
	g.GET("/:buyer/:itemId", h.getOffer, middleware.IsValidAddress("buyer"))
	g.POST("/:buyer/:itemId/accept", h.acceptOffer, middleware.IsValidAddress("buyer"))
	g.DELETE("/:buyer/:itemId", h.cancelOffer, middleware.IsValidAddress("buyer"))
	g.POST("/cancel-all", h.cancelAllOffers)
}

func (h *handler) setOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := offer.SetOfferPayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	res, err := h.offer.SetOffer(ctx, p)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) findAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Buyer  domain.Address `query:"buyer"`
		ItemId domain.ItemId  `query:"itemId"`
		Offset int32          `query:"offset"`
		Limit  int32          `query:"limit"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	opts := []offer.FindAllOptionsFunc{}
	if !p.Buyer.IsEmpty() {
		opts = append(opts, offer.WithBuyer(p.Buyer))
	}
	if len(p.ItemId) > 0 {
		opts = append(opts, offer.WithItemId(p.ItemId))
	}
	if p.Limit > 0 {
		opts = append(opts, offer.WithPagination(p.Offset, p.Limit))
	}

	res, err := h.offer.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	id := offer.Id{
		Buyer:  domain.Address(c.Param("buyer")),
		ItemId: domain.ItemId(c.Param("itemId")),
	}
	res, err := h.offer.GetOffer(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) acceptOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := offer.AcceptOfferPayload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	p.Buyer = domain.Address(c.Param("buyer"))
	p.ItemId = domain.ItemId(c.Param("itemId"))
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.offer.AcceptOffer(ctx, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	met.BumpSum("accept.count", 1, "itemId", string(p.ItemId))
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	caller := domain.Address(c.QueryParam("caller"))
	if caller.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	id := offer.Id{
		Buyer:  domain.Address(c.Param("buyer")),
		ItemId: domain.ItemId(c.Param("itemId")),
	}
	if err := h.offer.CancelOffer(ctx, caller, id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) cancelAllOffers(c echo.Context) error {
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

	canceled, err := h.offer.CancelAllOffers(ctx, p.Caller, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int{"canceled": canceled})
}
