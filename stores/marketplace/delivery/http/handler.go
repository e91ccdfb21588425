package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/delivery"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
	"github.com/scimarket/goapi/middleware"
)

type handler struct {
	marketplace marketplace.UseCase
}

func New(e *echo.Echo, mu marketplace.UseCase) {
	h := &handler{marketplace: mu}

	g := e.Group("/books/:book")
	g.GET("/params", h.getParams)
	g.POST("/fee", h.setFee)
	g.POST("/royalty", h.setRoyaltyNumerator)
	g.POST("/pause", h.pause)
	g.POST("/unpause", h.unpause)
	g.POST("/withdraw", h.withdraw)
	g.PUT("/deny-delegate", h.setDenyDelegate)
	g.GET("/deny-delegate/:account", h.isDelegateDenied, middleware.IsValidAddress("account"))
}

func bookParam(c echo.Context) (marketplace.Book, error) {
	book := marketplace.Book(c.Param("book"))
	switch book {
	case marketplace.BookListings, marketplace.BookOffers:
		return book, nil
	}
	return "", domain.ErrBadParamInput
}

func (h *handler) getParams(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	params, err := h.marketplace.GetParams(ctx, book)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, params)
}

func (h *handler) setFee(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
		Fee    string         `json:"fee" validate:"required"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.SetFee(ctx, p.Caller, book, p.Fee); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setRoyaltyNumerator(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller    domain.Address `json:"caller" validate:"required"`
		Numerator uint32         `json:"numerator"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.SetRoyaltyNumerator(ctx, p.Caller, book, p.Numerator); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) pause(c echo.Context) error {
	return h.setPaused(c, true)
}

func (h *handler) unpause(c echo.Context) error {
	return h.setPaused(c, false)
}

func (h *handler) setPaused(c echo.Context, paused bool) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if paused {
		err = h.marketplace.Pause(ctx, p.Caller, book)
	} else {
		err = h.marketplace.Unpause(ctx, p.Caller, book)
	}
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
		To     domain.Address `json:"to" validate:"required"`
		Amount string         `json:"amount" validate:"required"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.Withdraw(ctx, p.Caller, p.To, book, p.Amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setDenyDelegate(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Caller domain.Address `json:"caller" validate:"required"`
		Denied bool           `json:"denied"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.SetDenyDelegate(ctx, p.Caller, book, p.Denied); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) isDelegateDenied(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	book, err := bookParam(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	denied, err := h.marketplace.IsDelegateDenied(ctx, book, domain.Address(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]bool{"denied": denied})
}
