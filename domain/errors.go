package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")

	// time window errors
	ErrInvalidTime      = errors.New("Invalid time")
	ErrInvalidEndTime   = errors.New("Invalid end time")
	ErrInvalidStartTime = errors.New("Invalid start time")

	// price errors
	ErrInvalidPrice      = errors.New("Invalid price")
	ErrPriceExceedsLimit = errors.New("Price exceeds limit")
	ErrWrongPrice        = errors.New("Wrong price")

	// window violations at acceptance
	ErrListingNotYetStarted = errors.New("Listing has not yet started")
	ErrListingExpired       = errors.New("Listing has expired")
	ErrOfferExpired         = errors.New("Offer has expired")

	// fee errors, covering both "fee omitted on creation" and "fee charged on update"
	ErrWrongListingFee = errors.New("Wrong listing fee")
	ErrWrongOfferFee   = errors.New("Wrong offer fee")

	// item errors
	ErrInvalidItem     = errors.New("Invalid NFT")
	ErrItemBlocklisted = errors.New("NFT is blocklisted")
	ErrItemBridged     = errors.New("NFT is bridged")

	// record errors
	ErrInvalidListing = errors.New("Invalid listing")
	ErrInvalidOffer   = errors.New("Invalid offer")

	// authorization errors; wording distinguishes "wrong role entirely"
	// from "principal explicitly denied the delegate"
	ErrOnlySellerOrSuperadmin    = errors.New("Only SELLER or SUPERADMIN")
	ErrOnlyBuyerOrSuperadmin     = errors.New("Only BUYER or SUPERADMIN")
	ErrOnlySellerSuperadminOrCEO = errors.New("Only SELLER, SUPERADMIN, or CEO")
	ErrOnlyBuyerSuperadminOrCEO  = errors.New("Only BUYER, SUPERADMIN, or CEO")
	ErrSellerDeniedSuperadmin    = errors.New("SELLER has denied SUPERADMIN")
	ErrBuyerDeniedSuperadmin     = errors.New("BUYER has denied SUPERADMIN")
	ErrOnlyCEO                   = errors.New("Only CEO")
	ErrOnlyCFO                   = errors.New("Only CFO")
	ErrOnlyAccountItself         = errors.New("Only the account itself")

	// pause state errors
	ErrPaused    = errors.New("Pausable: paused")
	ErrNotPaused = errors.New("Pausable: not paused")

	// treasury errors
	ErrValueExceedsBalance = errors.New("Value exceeds balance")

	// ledger errors
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrInvalidAccount      = errors.New("Invalid account")
)
