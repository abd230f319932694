package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hotelier/internal/auth"
	"hotelier/internal/authz"
)

// Stable message codes clients switch on.
const (
	msgBadRequest             = "MSG_0090"
	msgNotFound               = "MSG_0091"
	msgConflict               = "MSG_0092"
	msgInternal               = "MSG_0093"
	msgInsufficientPermission = "MSG_0094"
	msgRoleNotAllowed         = "MSG_0095"
	msgAccountBlocked         = "MSG_0096"
	msgNotAuthenticated       = "MSG_0097"
	msgVerificationRequired   = "MSG_0098"
	msgProfileRequired        = "MSG_0099"
	msgTooManyRequests        = "MSG_0100"
)

// ErrorResponse is the body of every failed request.
//
//	@name			ErrorResponse
//	@description	Standard error envelope returned by all endpoints
type ErrorResponse struct {
	Success     bool   `json:"success" example:"false"`
	Status      int    `json:"status" example:"403"`
	MessageCode string `json:"message_code" example:"MSG_0094"`
	Message     string `json:"message" example:"insufficient permissions"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, msgInternal, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, msgBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, msgNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, msgConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, msgNotAuthenticated, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, msgNotAuthenticated, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, code, message string) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "code", code)

	writeJSONError(w, http.StatusForbidden, code, message)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	writeJSONError(w, http.StatusTooManyRequests, msgTooManyRequests, "rate limit exceeded, retry after: "+strconv.Itoa(seconds)+"s")
}

// authzErrorResponse maps authentication and authorization failures onto
// their status and message code.
func (app *application) authzErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrNotAuthenticated), errors.Is(err, auth.ErrUnauthenticated):
		app.unauthorizedErrorResponse(w, r, err)
	case errors.Is(err, auth.ErrBlocked):
		app.forbiddenResponse(w, r, msgAccountBlocked, "account is blocked")
	case errors.Is(err, authz.ErrVerificationRequired):
		app.forbiddenResponse(w, r, msgVerificationRequired, "email verification required")
	case errors.Is(err, authz.ErrProfileIncomplete):
		app.forbiddenResponse(w, r, msgProfileRequired, "profile completion required")
	case errors.Is(err, authz.ErrInsufficientRole):
		app.forbiddenResponse(w, r, msgRoleNotAllowed, "role not allowed")
	case errors.Is(err, authz.ErrInsufficientPermission):
		app.forbiddenResponse(w, r, msgInsufficientPermission, "insufficient permissions")
	default:
		app.internalServerError(w, r, err)
	}
}
