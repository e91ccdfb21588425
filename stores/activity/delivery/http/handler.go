package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/delivery"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/activity"
	"github.com/scimarket/goapi/domain/marketplace"
)

type handler struct {
	activity activity.UseCase
}

func New(e *echo.Echo, au activity.UseCase) {
	h := &handler{activity: au}

	e.GET("/activities", h.findAll)
}

func (h *handler) findAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Book   string        `query:"book"`
		ItemId domain.ItemId `query:"itemId"`
		Offset int32         `query:"offset"`
		Limit  int32         `query:"limit"`
	}
	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	opts := []activity.FindAllOptionsFunc{}
	if len(p.Book) > 0 {
		book := marketplace.Book(p.Book)
		if book != marketplace.BookListings && book != marketplace.BookOffers {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
		}
		opts = append(opts, activity.WithBook(book))
	}
	if len(p.ItemId) > 0 {
		opts = append(opts, activity.WithItemId(p.ItemId))
	}
	if p.Limit > 0 {
		opts = append(opts, activity.WithPagination(p.Offset, p.Limit))
	}

	res, err := h.activity.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
