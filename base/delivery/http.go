package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

var forbiddenErrs = []error{
	domain.ErrOnlySellerOrSuperadmin,
	domain.ErrOnlyBuyerOrSuperadmin,
	domain.ErrOnlySellerSuperadminOrCEO,
	domain.ErrOnlyBuyerSuperadminOrCEO,
	domain.ErrSellerDeniedSuperadmin,
	domain.ErrBuyerDeniedSuperadmin,
	domain.ErrOnlyCEO,
	domain.ErrOnlyCFO,
	domain.ErrOnlyAccountItself,
}

var badRequestErrs = []error{
	domain.ErrInvalidTime,
	domain.ErrInvalidEndTime,
	domain.ErrInvalidStartTime,
	domain.ErrInvalidPrice,
	domain.ErrPriceExceedsLimit,
	domain.ErrWrongPrice,
	domain.ErrListingNotYetStarted,
	domain.ErrListingExpired,
	domain.ErrOfferExpired,
	domain.ErrWrongListingFee,
	domain.ErrWrongOfferFee,
	domain.ErrInvalidItem,
	domain.ErrItemBlocklisted,
	domain.ErrItemBridged,
	domain.ErrInvalidListing,
	domain.ErrInvalidOffer,
	domain.ErrInsufficientBalance,
	domain.ErrValueExceedsBalance,
	domain.ErrInvalidNumberFormat,
	domain.ErrInvalidAddress,
	domain.ErrInvalidAccount,
	domain.ErrBadParamInput,
}

var conflictErrs = []error{
	domain.ErrPaused,
	domain.ErrNotPaused,
	domain.ErrConflict,
}

func statusOf(err error, fallback int) int {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, query.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, e := range forbiddenErrs {
		if errors.Is(err, e) {
			return http.StatusForbidden
		}
	}
	for _, e := range badRequestErrs {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	for _, e := range conflictErrs {
		if errors.Is(err, e) {
			return http.StatusConflict
		}
	}
	return fallback
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = statusOf(err, status)
		data = err.Error()
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
