package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"hotelier/internal/domain/hotels"
	"hotelier/internal/params"
)

const maxPhotoSize = 10 << 20 // 10 MB

// listHotelsHandler godoc
//
//	@Summary		List hotels
//	@Tags			hotels
//	@Produce		json
//	@Param			search	query		string	false	"Name or city"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	params.Page[hotels.Hotel]
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels [get]
func (app *application) listHotelsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	list, total, err := app.store.Hotels.List(r.Context(), q.Get("search"), p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(list, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getHotelHandler godoc
//
//	@Summary		Get hotel
//	@Tags			hotels
//	@Produce		json
//	@Param			hotelID	path		int	true	"Hotel ID"
//	@Success		200		{object}	hotels.Hotel
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels/{hotelID} [get]
func (app *application) getHotelHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := parseIDParam(r, "hotelID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hotel, err := app.store.Hotels.GetByID(r.Context(), hotelID)
	if err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, hotel); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createHotelHandler godoc
//
//	@Summary		Create hotel
//	@Tags			hotels
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		hotels.CreateHotelRequest	true	"Hotel"
//	@Success		201		{object}	hotels.Hotel
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels [post]
func (app *application) createHotelHandler(w http.ResponseWriter, r *http.Request) {
	var payload hotels.CreateHotelRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hotel, err := app.store.Hotels.Create(r.Context(), payload)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, hotel); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateHotelHandler godoc
//
//	@Summary		Update hotel
//	@Tags			hotels
//	@Accept			json
//	@Produce		json
//	@Param			hotelID	path		int							true	"Hotel ID"
//	@Param			payload	body		hotels.UpdateHotelRequest	true	"Fields to change"
//	@Success		200		{object}	hotels.Hotel
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels/{hotelID} [patch]
func (app *application) updateHotelHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := parseIDParam(r, "hotelID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload hotels.UpdateHotelRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hotel, err := app.store.Hotels.Update(r.Context(), hotelID, payload)
	if err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, hotel); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteHotelHandler godoc
//
//	@Summary		Delete hotel
//	@Tags			hotels
//	@Param			hotelID	path	int	true	"Hotel ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Hotel still has rooms"
//	@Security		ApiKeyAuth
//	@Router			/hotels/{hotelID} [delete]
func (app *application) deleteHotelHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := parseIDParam(r, "hotelID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	hotel, err := app.store.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	if err := app.store.Hotels.Delete(ctx, hotelID); err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	for _, photo := range hotel.Photos {
		if err := app.photos.Destroy(ctx, photo); err != nil {
			app.logger.Warnw("failed to delete hotel photo", "hotel_id", hotelID, "url", photo, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadHotelPhotoHandler godoc
//
//	@Summary		Upload hotel photo
//	@Tags			hotels
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			hotelID	path		int		true	"Hotel ID"
//	@Param			photo	formData	file	true	"Photo"
//	@Success		201		{object}	hotels.Hotel
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels/{hotelID}/photos [post]
func (app *application) uploadHotelPhotoHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := parseIDParam(r, "hotelID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("unable to parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("photo file is required"))
		return
	}
	defer file.Close()

	ctx := r.Context()

	if _, err := app.store.Hotels.GetByID(ctx, hotelID); err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	publicID := fmt.Sprintf("hotel_%d_%d", hotelID, time.Now().UnixNano())
	photoURL, err := app.photos.Upload(ctx, file, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	hotel, err := app.store.Hotels.AddPhoto(ctx, hotelID, photoURL)
	if err != nil {
		if derr := app.photos.Destroy(ctx, photoURL); derr != nil {
			app.logger.Warnw("failed to clean up uploaded photo", "url", photoURL, "error", derr)
		}
		app.hotelStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, hotel); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteHotelPhotoHandler godoc
//
//	@Summary		Delete hotel photo
//	@Tags			hotels
//	@Produce		json
//	@Param			hotelID		path		int		true	"Hotel ID"
//	@Param			photo_url	query		string	true	"Photo URL"
//	@Success		200			{object}	hotels.Hotel
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/hotels/{hotelID}/photos [delete]
func (app *application) deleteHotelPhotoHandler(w http.ResponseWriter, r *http.Request) {
	hotelID, err := parseIDParam(r, "hotelID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url is required"))
		return
	}

	ctx := r.Context()

	current, err := app.store.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		app.hotelStoreError(w, r, err)
		return
	}
	found := false
	for _, p := range current.Photos {
		if p == photoURL {
			found = true
			break
		}
	}
	if !found {
		app.notFoundResponse(w, r, errors.New("photo not found on hotel"))
		return
	}

	if err := app.photos.Destroy(ctx, photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	hotel, err := app.store.Hotels.RemovePhoto(ctx, hotelID, photoURL)
	if err != nil {
		app.hotelStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, hotel); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) hotelStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, hotels.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, hotels.ErrHasRooms):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
