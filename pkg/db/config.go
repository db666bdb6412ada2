package db

import (
	"fmt"
	"net/url"

	"github.com/Builder-Lawyers/execution-service/pkg/env"
)

type Config struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

func NewConfig() Config {
	return Config{
		Host:     env.GetEnv("DB_HOST", "localhost"),
		Port:     env.GetEnv("DB_PORT", "5432"),
		Name:     env.GetEnv("DB_NAME", "executionservice"),
		User:     env.GetEnv("DB_USER", "postgres"),
		Password: env.GetEnv("DB_PASSWORD", "postgres"),
		SSLMode:  env.GetEnv("DB_SSLMODE", "require"),
		MaxConns: env.GetInt("DB_MAX_CONNS", 10),
	}
}

func (c Config) GetDSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Name,
	}
	q := dsn.Query()
	q.Set("sslmode", c.SSLMode)
	if c.MaxConns > 0 {
		q.Set("pool_max_conns", fmt.Sprint(c.MaxConns))
	}
	dsn.RawQuery = q.Encode()
	return dsn.String()
}
