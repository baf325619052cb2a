package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")
	ErrUnauthorized  = errors.New("caller is not authorized")

	// auction lifecycle
	ErrInvalidParameters = errors.New("invalid auction parameters")
	ErrCustodyNotGranted = errors.New("asset custody not granted")
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionEnded      = errors.New("auction already ended")
	ErrBidTooLow         = errors.New("bid too low")
	ErrOracleUnavailable = errors.New("price oracle unavailable")

	// ledger concurrency
	ErrConflict   = errors.New("concurrent update conflict")
	ErrContention = errors.New("too much contention on auction")

	// deployment and upgrade
	ErrCacheMissing              = errors.New("deployment cache missing")
	ErrAlreadyDeployed           = errors.New("proxy already deployed")
	ErrNoPriorDeployment         = errors.New("no prior deployment")
	ErrImplementationLoad        = errors.New("implementation load error")
	ErrUpgradeVerificationFailed = errors.New("upgrade verification failed")
	ErrCachePersistenceFailed    = errors.New("deployment cache persistence failed")
	ErrUpgradeInProgress         = errors.New("upgrade in progress")

	// request error
	ErrInvalidAddress = errors.New("Invalid address")
	ErrAlreadyExists  = errors.New("item already exists")
)
