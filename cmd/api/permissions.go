package main

import (
	"net/http"
)

// listPermissionsHandler godoc
//
//	@Summary		Permission catalog
//	@Description	Every registered permission grouped by category.
//	@Tags			permissions
//	@Produce		json
//	@Success		200	{array}		authz.CategoryGroup
//	@Failure		401	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/permissions [get]
func (app *application) listPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, app.registry.Grouped()); err != nil {
		app.internalServerError(w, r, err)
	}
}
