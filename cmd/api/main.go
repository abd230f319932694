package main

import (
	"expvar"
	"runtime"

	"hotelier/internal/audit"
	"hotelier/internal/auth"
	"hotelier/internal/authz"
	"hotelier/internal/db"
	"hotelier/internal/domain/storage"
	"hotelier/internal/domain/stays"
	"hotelier/internal/logger"
	"hotelier/internal/mailer"
	"hotelier/internal/ratelimiter"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "0.4.0"

const referenceMinLength = 8

//	@title			Hotelier API
//	@description	Back office API for hotel staff: hotels, rooms, clients and stays behind role and permission checks.

//	@contact.name	API Support
//	@contact.email	support@hotelier.local

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@securityDefinitions.basic	BasicAuth

func main() {
	if err := godotenv.Load(); err != nil {
		zap.S().Debugw("no .env file loaded", "error", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := logger.New(cfg.Env)
	defer logger.Sync()

	policy, err := authz.ParseFunnelPolicy(cfg.FunnelPolicy)
	if err != nil {
		logger.Fatal(err)
	}

	// Database
	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	refs, err := stays.NewReferenceCodec(cfg.HashidSalt, referenceMinLength)
	if err != nil {
		logger.Fatal(err)
	}

	store := storage.NewContainer(pool, refs)

	var photos photoStore = disabledPhotos{}
	if cfg.CloudinaryURL != "" {
		cld, err := newCloudinaryPhotos(cfg.CloudinaryURL, "hotels")
		if err != nil {
			logger.Fatal(err)
		}
		photos = cld
	} else {
		logger.Warn("CLOUDINARY_URL not set, hotel photo uploads are disabled")
	}

	smtp, err := mailer.NewSMTPClient(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromEmail)
	if err != nil {
		logger.Fatal(err)
	}

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.Token.Secret,
		cfg.Auth.Token.RefreshSecret,
		cfg.Auth.Token.Iss,
		cfg.Auth.Token.Iss,
		cfg.Auth.Token.AccessTokenExp,
		cfg.Auth.Token.RefreshTokenExp,
	)

	// With Redis, login attempts are shared across instances and audit
	// writes go through the worker queue.
	var (
		loginLimiter ratelimiter.Limiter
		recorder     audit.Recorder
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		queue := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer queue.Close()

		loginLimiter = ratelimiter.NewRedisFixedWindow(rdb, "login", cfg.LoginLimit.Attempts, cfg.LoginLimit.Window)
		recorder = audit.NewQueueRecorder(queue)
		logger.Infow("redis enabled", "addr", cfg.Redis.Addr)
	} else {
		loginLimiter = ratelimiter.NewFixedWindowLimiter(cfg.LoginLimit.Attempts, cfg.LoginLimit.Window)
		recorder = store.Audit
	}

	registry := authz.DefaultRegistry()

	app := &application{
		config:        cfg,
		store:         store,
		logger:        logger,
		photos:        photos,
		mailer:        smtp,
		authenticator: jwtAuthenticator,
		resolver:      auth.NewResolver(jwtAuthenticator, store.Users),
		registry:      registry,
		guard:         authz.NewGuard(policy),
		audit:         recorder,
		loginLimiter:  loginLimiter,
	}

	// Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]int32{
			"acquired": s.AcquiredConns(),
			"idle":     s.IdleConns(),
			"total":    s.TotalConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
