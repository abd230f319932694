package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hotelier/internal/authz"
	"hotelier/internal/domain/users"
	"hotelier/internal/mailer"
	"hotelier/internal/params"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// getCurrentUserHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the signed-in user. Reachable before the signup funnel is complete.
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	id := getIdentityFromContext(r)

	user, err := app.store.Users.GetByID(r.Context(), id.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CompleteProfilePayload struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Phone     string `json:"phone" validate:"required,phone"`
}

// completeProfileHandler godoc
//
//	@Summary		Complete profile
//	@Description	Last step of the signup funnel; requires a verified email.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CompleteProfilePayload	true	"Profile"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse	"Email not verified"
//	@Security		ApiKeyAuth
//	@Router			/users/me/profile [put]
func (app *application) completeProfileHandler(w http.ResponseWriter, r *http.Request) {
	id := getIdentityFromContext(r)
	if !id.EmailVerified {
		app.authzErrorResponse(w, r, authz.ErrVerificationRequired)
		return
	}

	var payload CompleteProfilePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.CompleteProfile(r.Context(), id.ID, users.ProfileUpdate{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// resendVerificationHandler godoc
//
//	@Summary		Resend verification email
//	@Tags			users
//	@Produce		json
//	@Success		202	{object}	map[string]string
//	@Failure		409	{object}	ErrorResponse	"Already verified"
//	@Security		ApiKeyAuth
//	@Router			/users/me/verification [post]
func (app *application) resendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	id := getIdentityFromContext(r)
	ctx := r.Context()

	user, err := app.store.Users.GetByID(ctx, id.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if user.EmailVerified {
		app.conflictResponse(w, r, errors.New("email already verified"))
		return
	}

	plainToken := uuid.New().String()
	if err := app.store.Users.CreateInvitation(ctx, user.ID, users.HashToken(plainToken), users.InvitationVerifyEmail, app.config.Mail.Exp); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.sendVerificationEmail(user, plainToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusAccepted, map[string]string{"message": "verification email sent"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type InviteUserPayload struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Role        string `json:"role" validate:"required"`
	Permissions []int  `json:"permissions"`
}

// inviteUserHandler godoc
//
//	@Summary		Invite a staff member
//	@Description	Creates a user with a role and permissions and mails an invitation link.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		InviteUserPayload	true	"Invitation"
//	@Success		201		{object}	users.User
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/invite [post]
func (app *application) inviteUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload InviteUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	role, err := authz.ParseRole(payload.Role)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	inviter := getIdentityFromContext(r)
	if role == authz.RoleAdmin && !inviter.IsAdmin() {
		app.authzErrorResponse(w, r, authz.ErrInsufficientRole)
		return
	}

	codes, err := app.validateCodes(payload.Permissions)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		FirstName:        payload.FirstName,
		LastName:         payload.LastName,
		Email:            strings.ToLower(payload.Email),
		Role:             role,
		Permissions:      codes,
		ProfileCompleted: true,
	}
	// unusable until the invitation is accepted
	if err := user.Password.Set(uuid.New().String()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx := r.Context()
	plainToken := uuid.New().String()
	if err := app.store.Users.CreateAndInvite(ctx, user, users.HashToken(plainToken), users.InvitationStaff, app.config.Mail.Exp); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	vars := struct {
		Username      string
		InvitedBy     string
		Role          string
		InvitationURL string
		ExpiresIn     string
	}{
		Username:      user.FirstName,
		InvitedBy:     fmt.Sprintf("User #%d", inviter.ID),
		Role:          role.String(),
		InvitationURL: fmt.Sprintf("%s/invite?token=%s", app.config.FrontendURL, plainToken),
		ExpiresIn:     app.config.Mail.Exp.String(),
	}

	if _, err := app.mailer.Send(mailer.StaffInvitationTemplate, user.FirstName, user.Email, vars); err != nil {
		app.logger.Errorw("error sending invitation email", "error", err)

		if err := app.store.Users.Delete(ctx, user.ID); err != nil {
			app.logger.Errorw("error deleting user", "error", err)
		}

		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// validateCodes rejects codes missing from the registry so stored
// permission sets only ever hold catalog entries.
func (app *application) validateCodes(raw []int) ([]authz.Code, error) {
	codes := make([]authz.Code, 0, len(raw))
	seen := make(map[authz.Code]struct{}, len(raw))
	for _, c := range raw {
		code := authz.Code(c)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if err := app.registry.Validate(codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// listUsersHandler godoc
//
//	@Summary		List users
//	@Tags			users
//	@Produce		json
//	@Param			search	query		string	false	"Name or email"
//	@Param			role	query		string	false	"Role"
//	@Param			blocked	query		bool	false	"Blocked state"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	params.Page[users.User]
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users [get]
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	blocked, err := params.OptionalBool(q, "blocked")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	filters := users.ListFilters{Search: q.Get("search"), Blocked: blocked}
	if raw := q.Get("role"); raw != "" {
		role, err := authz.ParseRole(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filters.Role = role.String()
	}

	list, total, err := app.store.Users.List(r.Context(), filters, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, params.NewPage(list, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getUserHandler godoc
//
//	@Summary		Get user
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	users.User
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		app.userStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Role      *string `json:"role,omitempty"`
}

// updateUserHandler godoc
//
//	@Summary		Update user
//	@Description	Partial update of a staff member's details or role. Only admins may grant the admin role or change an admin.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int					true	"User ID"
//	@Param			payload	body		UpdateUserPayload	true	"Fields to change"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [patch]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.checkAdminTarget(w, r, userID) {
		return
	}

	in := users.UserUpdate{FirstName: payload.FirstName, LastName: payload.LastName, Phone: payload.Phone}
	if payload.Role != nil {
		role, err := authz.ParseRole(*payload.Role)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		if role == authz.RoleAdmin && !getIdentityFromContext(r).IsAdmin() {
			app.authzErrorResponse(w, r, authz.ErrInsufficientRole)
			return
		}
		in.Role = &role
	}

	user, err := app.store.Users.Update(r.Context(), userID, in)
	if err != nil {
		app.userStoreError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdatePermissionsPayload struct {
	Permissions []int `json:"permissions" validate:"required"`
}

// updatePermissionsHandler godoc
//
//	@Summary		Replace permissions
//	@Description	Replaces the user's permission set. Every code must exist in the catalog. Last writer wins.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int							true	"User ID"
//	@Param			payload	body		UpdatePermissionsPayload	true	"Permission codes"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorResponse	"Unknown permission code"
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/permissions [put]
func (app *application) updatePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdatePermissionsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	codes, err := app.validateCodes(payload.Permissions)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.UpdatePermissions(r.Context(), userID, codes)
	if err != nil {
		app.userStoreError(w, r, err)
		return
	}

	if d, ok := decisionFromContext(r); ok && d.Outcome == authz.Bypassed {
		app.logger.Infow("permissions changed by admin", "user_id", userID, "codes", codes)
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// blockUserHandler godoc
//
//	@Summary		Block user
//	@Description	Blocks the account and revokes its refresh token. Admin only.
//	@Tags			users
//	@Param			userID	path	int	true	"User ID"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/block [put]
func (app *application) blockUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setBlocked(w, r, true)
}

// unblockUserHandler godoc
//
//	@Summary		Unblock user
//	@Tags			users
//	@Param			userID	path	int	true	"User ID"
//	@Success		204
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/block [delete]
func (app *application) unblockUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setBlocked(w, r, false)
}

func (app *application) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if blocked && userID == getIdentityFromContext(r).ID {
		app.badRequestResponse(w, r, errors.New("you cannot block your own account"))
		return
	}

	if !app.checkAdminTarget(w, r, userID) {
		return
	}

	if err := app.store.Users.SetBlocked(r.Context(), userID, blocked); err != nil {
		app.userStoreError(w, r, err)
		return
	}

	app.logger.Infow("user block state changed", "user_id", userID, "blocked", blocked)
	w.WriteHeader(http.StatusNoContent)
}

// checkAdminTarget writes a 403 and returns false when a non-admin acts on an
// admin account.
func (app *application) checkAdminTarget(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if getIdentityFromContext(r).IsAdmin() {
		return true
	}

	target, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		app.userStoreError(w, r, err)
		return false
	}
	if target.Role == authz.RoleAdmin {
		app.authzErrorResponse(w, r, authz.ErrInsufficientRole)
		return false
	}
	return true
}

func (app *application) userStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, users.ErrDuplicateEmail), errors.Is(err, users.ErrConflict):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
