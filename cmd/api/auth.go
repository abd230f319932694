package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelier/internal/auth"
	"hotelier/internal/authz"
	"hotelier/internal/domain/users"
	"hotelier/internal/mailer"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const resetPasswordExp = 3 * time.Hour

type RegisterUserPayload struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// registerUserHandler godoc
//
//	@Summary		Registers a user
//	@Description	Creates an owner account with an unverified email and mails a verification link.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"User credentials"
//	@Success		201		{object}	users.User			"User registered"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		409		{object}	ErrorResponse		"Email taken"
//	@Failure		500		{object}	ErrorResponse		"Internal Server Error"
//	@Router			/authentication/user [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Email:       strings.ToLower(payload.Email),
		Role:        authz.RoleOwner,
		Permissions: []authz.Code{},
	}
	// hash the user password.
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx := r.Context()

	plainToken := uuid.New().String()
	err := app.store.Users.CreateAndInvite(ctx, user, users.HashToken(plainToken), users.InvitationVerifyEmail, app.config.Mail.Exp)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.sendVerificationEmail(user, plainToken); err != nil {
		app.logger.Errorw("error sending verification email", "error", err)

		// rollback user creation if email fails (SAGA pattern)
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

func (app *application) sendVerificationEmail(user *users.User, plainToken string) error {
	vars := struct {
		Username      string
		ActivationURL string
		ExpiresIn     string
	}{
		Username:      user.FirstName,
		ActivationURL: fmt.Sprintf("%s/confirm?token=%s", app.config.FrontendURL, plainToken),
		ExpiresIn:     app.config.Mail.Exp.String(),
	}

	status, err := app.mailer.Send(mailer.VerifyEmailTemplate, user.FirstName, user.Email, vars)
	if err != nil {
		return err
	}
	app.logger.Infow("Email sent", "template", mailer.VerifyEmailTemplate, "status code", status)
	return nil
}

// verifyEmailHandler godoc
//
//	@Summary		Verify email
//	@Description	Marks the email of the token owner as verified. Repeating the call is harmless.
//	@Tags			authentication
//	@Produce		json
//	@Param			token	path		string	true	"Verification token"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/verify/{token} [put]
func (app *application) verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := app.store.Users.VerifyEmail(r.Context(), users.HashToken(token))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidToken):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateUserTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// TokenResponse is returned by login and refresh. The flags tell the client
// which funnel step, if any, to show next.
type TokenResponse struct {
	AccessToken               string     `json:"access_token"`
	RefreshToken              string     `json:"refresh_token"`
	UserID                    string     `json:"user_id"`
	Role                      authz.Role `json:"role"`
	RequiresVerification      bool       `json:"requires_verification"`
	RequiresProfileCompletion bool       `json:"requires_profile_completion"`
}

// createTokenHandler godoc
//
//	@Summary		Login to get Token
//	@Description	Issues access and refresh tokens. Failed attempts are limited per email.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse	"Account blocked"
//	@Failure		429		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	limitKey := strings.ToLower(payload.Email)

	allowed, retryAfter, err := app.loginLimiter.Allow(ctx, limitKey)
	if err != nil {
		app.logger.Errorw("login limiter unavailable", "error", err)
	} else if !allowed {
		app.rateLimitExceededResponse(w, r, retryAfter)
		return
	}

	user, err := app.store.Users.GetByEmail(ctx, payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	if user.IsBlocked {
		app.authzErrorResponse(w, r, auth.ErrBlocked)
		return
	}

	if err := app.loginLimiter.Reset(ctx, limitKey); err != nil {
		app.logger.Warnw("failed to reset login limiter", "error", err)
	}

	app.issueTokens(w, r, user)
}

func (app *application) issueTokens(w http.ResponseWriter, r *http.Request, user *users.User) {
	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role.String())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Save refresh token in the database
	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := TokenResponse{
		AccessToken:               accessToken,
		RefreshToken:              refreshToken,
		UserID:                    strconv.FormatInt(user.ID, 10),
		Role:                      user.Role,
		RequiresVerification:      !user.EmailVerified,
		RequiresProfileCompletion: user.EmailVerified && !user.ProfileCompleted,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// LogoutUser godoc
//
//	@Summary		logout user
//	@Description	logout user which will nullify refresh token
//	@Tags			authentication
//	@Produce		json
//	@Success		204	{string}	string	"No Content"
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	id := getIdentityFromContext(r)

	if err := app.store.Users.DeleteRefreshToken(r.Context(), id.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh authentication tokens
//	@Description	Validates the provided refresh token and issues new access and refresh tokens.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshPayload	true	"Refresh token payload"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse	"Account blocked"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token: %w", err))
		return
	}

	userID, err := auth.SubjectID(token)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()

	// Ensure refresh token exists in DB
	savedToken, err := app.store.Users.GetRefreshToken(ctx, userID)
	if err != nil || savedToken != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token mismatch"))
		return
	}

	user, err := app.store.Users.GetByID(ctx, userID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}
	if user.IsBlocked {
		app.authzErrorResponse(w, r, auth.ErrBlocked)
		return
	}

	app.issueTokens(w, r, user)
}

type RequestResetPasswordPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// requestResetPasswordHandler godoc
//
//	@Summary		Request password reset
//	@Description	Mails a reset link. The response is the same whether or not the email exists.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RequestResetPasswordPayload	true	"User email"
//	@Success		202		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/reset-password [post]
func (app *application) requestResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload RequestResetPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	accepted := map[string]string{"message": "if the email exists, a reset link has been sent"}

	user, err := app.store.Users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.jsonResponse(w, http.StatusAccepted, accepted)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	resetToken := uuid.New().String()
	if err := app.store.Users.UpdateResetToken(ctx, user.Email, users.HashToken(resetToken), time.Now().UTC().Add(resetPasswordExp)); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	vars := struct {
		Username  string
		ResetURL  string
		ExpiresIn string
	}{
		Username:  user.FirstName,
		ResetURL:  fmt.Sprintf("%s/reset-password?token=%s", app.config.FrontendURL, resetToken),
		ExpiresIn: resetPasswordExp.String(),
	}

	status, err := app.mailer.Send(mailer.ResetPasswordTemplate, user.FirstName, user.Email, vars)
	if err != nil {
		app.logger.Errorw("error sending reset password email", "error", err)
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("Reset password email sent", "status code", status)

	if err := app.jsonResponse(w, http.StatusAccepted, accepted); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ResetPasswordPayload struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// resetPasswordHandler godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password using a reset token and signs out every session.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ResetPasswordPayload	true	"Reset password details"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/reset-password [put]
func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var user users.User
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.ResetPassword(r.Context(), users.HashToken(payload.Token), &user); err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "Password reset successful"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AcceptInvitationPayload struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// acceptInvitationHandler godoc
//
//	@Summary		Accept staff invitation
//	@Description	Sets the password of an invited staff member and verifies the email.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			token	path		string					true	"Invitation token"
//	@Param			payload	body		AcceptInvitationPayload	true	"New password"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/invite/{token} [put]
func (app *application) acceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	var payload AcceptInvitationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in users.User
	if err := in.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	user, err := app.store.Users.AcceptInvitation(r.Context(), users.HashToken(chi.URLParam(r, "token")), &in)
	if err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}
