// Package errhttp maps domain sentinel errors to HTTP status codes and
// machine-readable error codes.
// Add a case to classify for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/telemetry"
	"github.com/blueledger/blueledger/pkg/tenant"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	messagingdomain "github.com/blueledger/blueledger/services/messaging/domain"
)

// internalMessage is the only text a client sees for a 5xx.
const internalMessage = "internal error"

// WriteError maps err to a status and code and writes a JSON error body.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// 4xx responses carry err's message; anything unrecognized is a 500 that is
// logged through the request's logger, reported to Sentry, and the client
// only sees "internal error".
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status < http.StatusInternalServerError {
		httpx.JSONError(w, status, code, err.Error())
		return
	}

	logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	telemetry.Capture(r.Context(), err, map[string]string{"route": r.Method + " " + r.URL.Path})

	httpx.JSONError(w, status, code, internalMessage)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, accountdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, httpx.CodeUnauthenticated // 401

	case errors.Is(err, tenant.ErrForeignTenant),
		errors.Is(err, accountdomain.ErrNotAdmin),
		errors.Is(err, accountdomain.ErrCallerProfileMissing),
		errors.Is(err, auth.ErrProfileMissing),
		errors.Is(err, auth.ErrProfileInactive):
		return http.StatusForbidden, httpx.CodePermissionDenied // 403

	case errors.Is(err, tenant.ErrNoCompany),
		errors.Is(err, accountdomain.ErrNotAWorker):
		return http.StatusPreconditionFailed, httpx.CodeFailedPrecondition // 412

	case errors.Is(err, inventorydomain.ErrProductNotFound),
		errors.Is(err, accountdomain.ErrWorkerNotFound),
		errors.Is(err, messagingdomain.ErrMessageNotFound):
		return http.StatusNotFound, httpx.CodeNotFound // 404

	case errors.Is(err, inventorydomain.ErrInsufficientStock):
		return http.StatusConflict, httpx.CodeInsufficientStock // 409

	case errors.Is(err, accountdomain.ErrEmailTaken):
		return http.StatusConflict, httpx.CodeAlreadyExists // 409

	case errors.Is(err, inventorydomain.ErrInvalidProduct):
		return http.StatusUnprocessableEntity, httpx.CodeInvalidArgument // 422

	case errors.Is(err, inventorydomain.ErrInvalidArgument),
		errors.Is(err, accountdomain.ErrInvalidArgument),
		errors.Is(err, messagingdomain.ErrInvalidMessage):
		return http.StatusBadRequest, httpx.CodeInvalidArgument // 400

	default:
		return http.StatusInternalServerError, httpx.CodeInternal // 500
	}
}
