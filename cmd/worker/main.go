package main

import (
	"context"
	"os/signal"
	"syscall"

	"hotelier/internal/audit"
	"hotelier/internal/db"
	"hotelier/internal/logger"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Concurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	DB          struct {
		Addr        string `envconfig:"ADDR" required:"true"`
		MaxConns    int32  `envconfig:"MAX_CONNS" default:"10"`
		MaxIdleTime string `envconfig:"MAX_IDLE_TIME" default:"15m"`
	} `envconfig:"DB"`
	Redis struct {
		Addr     string `envconfig:"ADDR" required:"true"`
		Password string `envconfig:"PASSWORD"`
		DB       int    `envconfig:"DB" default:"0"`
	} `envconfig:"REDIS"`
}

// The worker drains the audit queue into Postgres.
func main() {
	if err := godotenv.Load(); err != nil {
		zap.S().Debugw("no .env file loaded", "error", err)
	}

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			audit.QueueAudit: 1,
		},
		Logger: log,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Errorw("task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(audit.TaskTypeRecord, audit.HandleRecordTask(audit.NewStore(pool)))

	if err := srv.Start(mux); err != nil {
		log.Fatal(err)
	}
	log.Infow("worker has started", "queue", audit.QueueAudit, "concurrency", cfg.Concurrency)

	<-ctx.Done()
	srv.Shutdown()

	log.Info("worker has stopped")
}
