package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Cobranca"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"cobranca"`
	}

	SMTP struct {
		Host      string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
		Port      int    `envconfig:"SMTP_PORT" default:"587"`
		Secure    bool   `envconfig:"SMTP_SECURE" default:"false"`
		User      string `envconfig:"SMTP_USER" default:""`
		Password  string `envconfig:"SMTP_PASSWORD" default:""`
		FromEmail string `envconfig:"FROM_EMAIL" default:"noreply@seudominio.com"`
		FromName  string `envconfig:"FROM_NAME" default:"Sistema de Cobrança"`
	}

	Notifier struct {
		// Interval between automatic notification passes.
		Interval time.Duration `envconfig:"NOTIFIER_INTERVAL" default:"1h"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
