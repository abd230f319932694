package main

import (
	"errors"
	"net/http"

	"hotelier/internal/domain/roomcategories"
)

// listRoomCategoriesHandler godoc
//
//	@Summary		List room categories
//	@Description	Allowed for admin, owner and hotelManager roles.
//	@Tags			room-categories
//	@Produce		json
//	@Success		200	{array}		roomcategories.Category
//	@Failure		403	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/room-categories [get]
func (app *application) listRoomCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.RoomCategories.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRoomCategoryHandler godoc
//
//	@Summary		Get room category
//	@Tags			room-categories
//	@Produce		json
//	@Param			categoryID	path		int	true	"Category ID"
//	@Success		200			{object}	roomcategories.Category
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/room-categories/{categoryID} [get]
func (app *application) getRoomCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.RoomCategories.GetByID(r.Context(), id)
	if err != nil {
		app.roomCategoryStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createRoomCategoryHandler godoc
//
//	@Summary		Create room category
//	@Tags			room-categories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		roomcategories.UpsertRequest	true	"Category"
//	@Success		201		{object}	roomcategories.Category
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/room-categories [post]
func (app *application) createRoomCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload roomcategories.UpsertRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.RoomCategories.Create(r.Context(), payload)
	if err != nil {
		app.roomCategoryStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateRoomCategoryHandler godoc
//
//	@Summary		Update room category
//	@Tags			room-categories
//	@Accept			json
//	@Produce		json
//	@Param			categoryID	path		int								true	"Category ID"
//	@Param			payload		body		roomcategories.UpsertRequest	true	"Category"
//	@Success		200			{object}	roomcategories.Category
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/room-categories/{categoryID} [put]
func (app *application) updateRoomCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload roomcategories.UpsertRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.RoomCategories.Update(r.Context(), id, payload)
	if err != nil {
		app.roomCategoryStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteRoomCategoryHandler godoc
//
//	@Summary		Delete room category
//	@Tags			room-categories
//	@Param			categoryID	path	int	true	"Category ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Category in use"
//	@Security		ApiKeyAuth
//	@Router			/room-categories/{categoryID} [delete]
func (app *application) deleteRoomCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.RoomCategories.Delete(r.Context(), id); err != nil {
		app.roomCategoryStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) roomCategoryStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, roomcategories.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, roomcategories.ErrDuplicate), errors.Is(err, roomcategories.ErrInUse):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
