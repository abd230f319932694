package main

import (
	"errors"
	"fmt"
	"net/http"

	"hotelier/internal/domain/rooms"
	"hotelier/internal/params"
)

// listRoomsHandler godoc
//
//	@Summary		List rooms
//	@Tags			rooms
//	@Produce		json
//	@Param			hotel_id	query		int		false	"Hotel ID"
//	@Param			status		query		string	false	"available, occupied or maintenance"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	params.Page[rooms.Room]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/rooms [get]
func (app *application) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	hotelID, err := params.OptionalInt64(q, "hotel_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	filters := rooms.ListFilters{HotelID: hotelID}
	if raw := q.Get("status"); raw != "" {
		status := rooms.Status(raw)
		if !status.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("%w: %q", rooms.ErrInvalidStatus, raw))
			return
		}
		filters.Status = &status
	}

	list, total, err := app.store.Rooms.List(r.Context(), filters, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(list, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRoomHandler godoc
//
//	@Summary		Get room
//	@Tags			rooms
//	@Produce		json
//	@Param			roomID	path		int	true	"Room ID"
//	@Success		200		{object}	rooms.Room
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/rooms/{roomID} [get]
func (app *application) getRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roomID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room, err := app.store.Rooms.GetByID(r.Context(), id)
	if err != nil {
		app.roomStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, room); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createRoomHandler godoc
//
//	@Summary		Create room
//	@Tags			rooms
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		rooms.CreateRoomRequest	true	"Room"
//	@Success		201		{object}	rooms.Room
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/rooms [post]
func (app *application) createRoomHandler(w http.ResponseWriter, r *http.Request) {
	var payload rooms.CreateRoomRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room, err := app.store.Rooms.Create(r.Context(), payload)
	if err != nil {
		app.roomStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, room); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateRoomHandler godoc
//
//	@Summary		Update room
//	@Tags			rooms
//	@Accept			json
//	@Produce		json
//	@Param			roomID	path		int						true	"Room ID"
//	@Param			payload	body		rooms.UpdateRoomRequest	true	"Fields to change"
//	@Success		200		{object}	rooms.Room
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/rooms/{roomID} [patch]
func (app *application) updateRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roomID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload rooms.UpdateRoomRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room, err := app.store.Rooms.Update(r.Context(), id, payload)
	if err != nil {
		app.roomStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, room); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteRoomHandler godoc
//
//	@Summary		Delete room
//	@Tags			rooms
//	@Param			roomID	path	int	true	"Room ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Room has stays"
//	@Security		ApiKeyAuth
//	@Router			/rooms/{roomID} [delete]
func (app *application) deleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roomID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Rooms.Delete(r.Context(), id); err != nil {
		app.roomStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) roomStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rooms.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, rooms.ErrInvalidRefs), errors.Is(err, rooms.ErrInvalidStatus):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, rooms.ErrDuplicate), errors.Is(err, rooms.ErrHasStays), errors.Is(err, rooms.ErrNotAvailable):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
