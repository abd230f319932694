package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelier/docs" //this is required to generate swagger docs
	"hotelier/internal/audit"
	"hotelier/internal/auth"
	"hotelier/internal/authz"
	"hotelier/internal/domain/storage"
	"hotelier/internal/mailer"
	"hotelier/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

type identityResolver interface {
	Resolve(ctx context.Context, authHeader string) (*authz.Identity, error)
}

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	photos        photoStore
	mailer        mailer.Client
	authenticator auth.Authenticator
	resolver      identityResolver
	registry      *authz.Registry
	guard         *authz.Guard
	audit         audit.Recorder
	loginLimiter  ratelimiter.Limiter
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        app.config.isProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !app.config.isProduction(),
	}).Handler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	reg := app.registry

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		docsURL := fmt.Sprintf("%s/v1/swagger/doc.json", app.config.APIURL)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Use(httprate.LimitByIP(20, time.Minute))

			r.Post("/user", app.registerUserHandler)
			r.Put("/verify/{token}", app.verifyEmailHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/reset-password", app.requestResetPasswordHandler)
			r.Put("/reset-password", app.resetPasswordHandler)
			r.Put("/invite/{token}", app.acceptInvitationHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/permissions", app.listPermissionsHandler)
			r.With(app.requirePermissions(reg.MustRequire(authz.PermViewAuditLog))).Get("/audit", app.listAuditHandler)

			r.Route("/users", func(r chi.Router) {
				// reachable mid-funnel
				r.Get("/me", app.getCurrentUserHandler)
				r.Put("/me/profile", app.completeProfileHandler)
				r.Post("/me/verification", app.resendVerificationHandler)
				r.Post("/logout", app.logoutHandler)

				r.With(app.requirePermissions(reg.MustRequire(authz.PermInviteUser))).Post("/invite", app.inviteUserHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermUsersView))).Get("/", app.listUsersHandler)

				r.Route("/{userID}", func(r chi.Router) {
					r.With(app.requirePermissions(reg.MustRequire(authz.PermUsersView))).Get("/", app.getUserHandler)
					r.With(app.requirePermissions(reg.MustRequire(authz.PermUsersUpdate))).Patch("/", app.updateUserHandler)
					r.With(app.requirePermissions(reg.MustRequire(authz.PermManagePermissions))).Put("/permissions", app.updatePermissionsHandler)
					r.With(app.requireRoles(authz.RoleAdmin)).Put("/block", app.blockUserHandler)
					r.With(app.requireRoles(authz.RoleAdmin)).Delete("/block", app.unblockUserHandler)
				})
			})

			r.Route("/hotels", func(r chi.Router) {
				r.With(app.requirePermissions(reg.MustRequire(authz.PermHotelsView))).Get("/", app.listHotelsHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermHotelsCreate))).Post("/", app.createHotelHandler)
				r.Route("/{hotelID}", func(r chi.Router) {
					r.With(app.requirePermissions(reg.MustRequire(authz.PermHotelsView))).Get("/", app.getHotelHandler)
					r.With(app.requirePermissions(reg.MustRequire(authz.PermHotelsUpdate))).Patch("/", app.updateHotelHandler)
					r.With(app.requirePermissions(reg.MustRequire(authz.PermHotelsDelete))).Delete("/", app.deleteHotelHandler)
					// DELETE /hotels/{hotelID}/photos?photo_url={url}
					r.With(app.requirePermissions(reg.MustRequire(authz.PermManageHotelPhotos))).Post("/photos", app.uploadHotelPhotoHandler)
					r.With(app.requirePermissions(reg.MustRequire(authz.PermManageHotelPhotos))).Delete("/photos", app.deleteHotelPhotoHandler)
				})
			})

			r.Route("/room-categories", func(r chi.Router) {
				roles := app.requireRoles(authz.RoleAdmin, authz.RoleOwner, authz.RoleHotelManager)
				r.With(roles).Get("/", app.listRoomCategoriesHandler)
				r.With(roles).Post("/", app.createRoomCategoryHandler)
				r.With(roles).Get("/{categoryID}", app.getRoomCategoryHandler)
				r.With(roles).Put("/{categoryID}", app.updateRoomCategoryHandler)
				r.With(roles).Delete("/{categoryID}", app.deleteRoomCategoryHandler)
			})

			r.Route("/rooms", func(r chi.Router) {
				r.With(app.requirePermissions(reg.MustRequire(authz.PermRoomsView))).Get("/", app.listRoomsHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermRoomsCreate))).Post("/", app.createRoomHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermRoomsView))).Get("/{roomID}", app.getRoomHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermRoomsUpdate))).Patch("/{roomID}", app.updateRoomHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermRoomsDelete))).Delete("/{roomID}", app.deleteRoomHandler)
			})

			r.Route("/clients", func(r chi.Router) {
				r.With(app.requirePermissions(reg.MustRequire(authz.PermClientsView))).Get("/", app.listClientsHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermClientsCreate))).Post("/", app.createClientHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermClientsView))).Get("/{clientID}", app.getClientHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermClientsUpdate))).Put("/{clientID}", app.updateClientHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermClientsDelete))).Delete("/{clientID}", app.deleteClientHandler)
			})

			r.Route("/stays", func(r chi.Router) {
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysView))).Get("/", app.listStaysHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysCreate))).Post("/", app.createStayHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysView))).Get("/reference/{reference}", app.getStayByReferenceHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysView))).Get("/{stayID}", app.getStayHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysUpdate))).Patch("/{stayID}", app.updateStayHandler)
				r.With(app.requirePermissions(reg.MustRequire(authz.PermStaysCheckout))).Post("/{stayID}/checkout", app.checkoutStayHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.APIURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
