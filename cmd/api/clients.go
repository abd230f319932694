package main

import (
	"errors"
	"net/http"

	"hotelier/internal/domain/clients"
	"hotelier/internal/params"
)

// listClientsHandler godoc
//
//	@Summary		List clients
//	@Tags			clients
//	@Produce		json
//	@Param			search	query		string	false	"Name, email or document"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	params.Page[clients.Client]
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/clients [get]
func (app *application) listClientsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	list, total, err := app.store.Clients.List(r.Context(), q.Get("search"), p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(list, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getClientHandler godoc
//
//	@Summary		Get client
//	@Tags			clients
//	@Produce		json
//	@Param			clientID	path		int	true	"Client ID"
//	@Success		200			{object}	clients.Client
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/clients/{clientID} [get]
func (app *application) getClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "clientID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Clients.GetByID(r.Context(), id)
	if err != nil {
		app.clientStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createClientHandler godoc
//
//	@Summary		Create client
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		clients.UpsertRequest	true	"Client"
//	@Success		201		{object}	clients.Client
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/clients [post]
func (app *application) createClientHandler(w http.ResponseWriter, r *http.Request) {
	var payload clients.UpsertRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Clients.Create(r.Context(), payload)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateClientHandler godoc
//
//	@Summary		Update client
//	@Tags			clients
//	@Accept			json
//	@Produce		json
//	@Param			clientID	path		int						true	"Client ID"
//	@Param			payload		body		clients.UpsertRequest	true	"Client"
//	@Success		200			{object}	clients.Client
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/clients/{clientID} [put]
func (app *application) updateClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "clientID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload clients.UpsertRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Clients.Update(r.Context(), id, payload)
	if err != nil {
		app.clientStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteClientHandler godoc
//
//	@Summary		Delete client
//	@Tags			clients
//	@Param			clientID	path	int	true	"Client ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Client has stays"
//	@Security		ApiKeyAuth
//	@Router			/clients/{clientID} [delete]
func (app *application) deleteClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "clientID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Clients.Delete(r.Context(), id); err != nil {
		app.clientStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) clientStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clients.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, clients.ErrHasStays):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
