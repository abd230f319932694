package main

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Addr          string        `envconfig:"ADDR" default:":8080"`
	Env           string        `envconfig:"ENV" default:"development"`
	APIURL        string        `envconfig:"EXTERNAL_URL" default:"localhost:8080"`
	FrontendURL   string        `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	FunnelPolicy  string        `envconfig:"FUNNEL_POLICY" default:"enforce"`
	HashidSalt    string        `envconfig:"HASHID_SALT" required:"true"`
	CloudinaryURL string        `envconfig:"CLOUDINARY_URL"`
	DB            dbConfig      `envconfig:"DB"`
	Redis         redisConfig   `envconfig:"REDIS"`
	Mail          mailConfig    `envconfig:"MAIL"`
	Auth          authConfig    `envconfig:"AUTH"`
	LoginLimit    limiterConfig `envconfig:"LOGIN_LIMIT"`
}

type dbConfig struct {
	Addr        string `envconfig:"ADDR" required:"true"`
	MaxConns    int32  `envconfig:"MAX_CONNS" default:"30"`
	MaxIdleTime string `envconfig:"MAX_IDLE_TIME" default:"15m"`
}

type redisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type mailConfig struct {
	Exp       time.Duration `envconfig:"EXP" default:"72h"`
	FromEmail string        `envconfig:"FROM_EMAIL" default:"no-reply@hotelier.local"`
	Host      string        `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	Port      int           `envconfig:"SMTP_PORT" default:"1025"`
	Username  string        `envconfig:"SMTP_USERNAME"`
	Password  string        `envconfig:"SMTP_PASSWORD"`
}

type authConfig struct {
	Basic basicConfig `envconfig:"BASIC"`
	Token tokenConfig `envconfig:"TOKEN"`
}

type tokenConfig struct {
	Secret          string        `envconfig:"SECRET" required:"true"`
	RefreshSecret   string        `envconfig:"REFRESH_SECRET" required:"true"`
	AccessTokenExp  time.Duration `envconfig:"ACCESS_EXP" default:"24h"`
	RefreshTokenExp time.Duration `envconfig:"REFRESH_EXP" default:"216h"`
	Iss             string        `envconfig:"ISS" default:"Hotelier"`
}

type basicConfig struct {
	User string `envconfig:"USER" required:"true"`
	Pass string `envconfig:"PASS" required:"true"`
}

type limiterConfig struct {
	Attempts int           `envconfig:"ATTEMPTS" default:"5"`
	Window   time.Duration `envconfig:"WINDOW" default:"15m"`
}

// loadConfig reads the environment; a .env file is loaded by main beforehand.
func loadConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Auth.Token.Secret == cfg.Auth.Token.RefreshSecret {
		return cfg, errors.New("access and refresh token secrets must differ")
	}
	return cfg, nil
}

func (c config) isProduction() bool {
	return c.Env == "production"
}
