package main

import (
	"net/http"

	"hotelier/internal/audit"
	"hotelier/internal/params"
)

// listAuditHandler godoc
//
//	@Summary		List audit log
//	@Tags			audit
//	@Produce		json
//	@Param			actor_id	query		int		false	"Actor user ID"
//	@Param			action		query		string	false	"Action, e.g. access_denied"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	params.Page[audit.Entry]
//	@Failure		403			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/audit [get]
func (app *application) listAuditHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	actorID, err := params.OptionalInt64(q, "actor_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	f := audit.ListFilters{ActorID: actorID, Action: q.Get("action")}

	entries, total, err := app.store.Audit.List(r.Context(), f, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(entries, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}
