package main

import (
	"errors"
	"fmt"
	"net/http"

	"hotelier/internal/domain/stays"
	"hotelier/internal/params"

	"github.com/go-chi/chi/v5"
)

// listStaysHandler godoc
//
//	@Summary		List stays
//	@Tags			stays
//	@Produce		json
//	@Param			client_id	query		int		false	"Client ID"
//	@Param			room_id		query		int		false	"Room ID"
//	@Param			status		query		string	false	"active, completed or cancelled"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	params.Page[stays.Stay]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/stays [get]
func (app *application) listStaysHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	clientID, err := params.OptionalInt64(q, "client_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	roomID, err := params.OptionalInt64(q, "room_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	filters := stays.ListFilters{ClientID: clientID, RoomID: roomID}
	if raw := q.Get("status"); raw != "" {
		status := stays.Status(raw)
		switch status {
		case stays.StatusActive, stays.StatusCompleted, stays.StatusCancelled:
			filters.Status = &status
		default:
			app.badRequestResponse(w, r, fmt.Errorf("invalid stay status %q", raw))
			return
		}
	}

	list, total, err := app.store.Stays.List(r.Context(), filters, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(list, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getStayHandler godoc
//
//	@Summary		Get stay
//	@Tags			stays
//	@Produce		json
//	@Param			stayID	path		int	true	"Stay ID"
//	@Success		200		{object}	stays.Stay
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/stays/{stayID} [get]
func (app *application) getStayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "stayID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stay, err := app.store.Stays.GetByID(r.Context(), id)
	if err != nil {
		app.stayStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, stay); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getStayByReferenceHandler godoc
//
//	@Summary		Get stay by booking reference
//	@Description	Looks up a stay by the short reference given to the guest.
//	@Tags			stays
//	@Produce		json
//	@Param			reference	path		string	true	"Booking reference"
//	@Success		200			{object}	stays.Stay
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/stays/reference/{reference} [get]
func (app *application) getStayByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")

	stay, err := app.store.Stays.GetByReference(r.Context(), ref)
	if err != nil {
		app.stayStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, stay); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createStayHandler godoc
//
//	@Summary		Check a client in
//	@Description	Creates an active stay and marks the room occupied.
//	@Tags			stays
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		stays.CreateStayRequest	true	"Stay"
//	@Success		201		{object}	stays.Stay
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Room not available"
//	@Security		ApiKeyAuth
//	@Router			/stays [post]
func (app *application) createStayHandler(w http.ResponseWriter, r *http.Request) {
	var payload stays.CreateStayRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stay, err := app.store.Stays.Create(r.Context(), payload)
	if err != nil {
		app.stayStoreError(w, r, err)
		return
	}

	app.logger.Infow("stay created", "stay_id", stay.ID, "reference", stay.Reference, "room_id", stay.RoomID)

	if err := app.jsonResponse(w, http.StatusCreated, stay); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateStayHandler godoc
//
//	@Summary		Update an active stay
//	@Tags			stays
//	@Accept			json
//	@Produce		json
//	@Param			stayID	path		int						true	"Stay ID"
//	@Param			payload	body		stays.UpdateStayRequest	true	"Fields to change"
//	@Success		200		{object}	stays.Stay
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Stay not active"
//	@Security		ApiKeyAuth
//	@Router			/stays/{stayID} [patch]
func (app *application) updateStayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "stayID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload stays.UpdateStayRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stay, err := app.store.Stays.Update(r.Context(), id, payload)
	if err != nil {
		app.stayStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, stay); err != nil {
		app.internalServerError(w, r, err)
	}
}

// checkoutStayHandler godoc
//
//	@Summary		Check a client out
//	@Description	Completes the stay and releases the room.
//	@Tags			stays
//	@Produce		json
//	@Param			stayID	path		int	true	"Stay ID"
//	@Success		200		{object}	stays.Stay
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Stay not active"
//	@Security		ApiKeyAuth
//	@Router			/stays/{stayID}/checkout [post]
func (app *application) checkoutStayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "stayID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	stay, err := app.store.Stays.Checkout(r.Context(), id)
	if err != nil {
		app.stayStoreError(w, r, err)
		return
	}

	app.logger.Infow("stay checked out", "stay_id", stay.ID, "room_id", stay.RoomID)

	if err := app.jsonResponse(w, http.StatusOK, stay); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) stayStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stays.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, stays.ErrInvalidDates), errors.Is(err, stays.ErrInvalidRefs):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, stays.ErrNotActive):
		app.conflictResponse(w, r, err)
	default:
		app.roomStoreError(w, r, err)
	}
}
