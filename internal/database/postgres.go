package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func buildPostgresDSN(cfg Config) (string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return "", errors.New("postgres configuration requires a connection URL")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}

	user := parsed.User.Username()
	name := strings.TrimPrefix(parsed.Path, "/")
	if user == "" || name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "5432"
	}

	params := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%s", port),
		fmt.Sprintf("user=%s", user),
		fmt.Sprintf("dbname=%s", name),
	}

	if password, ok := parsed.User.Password(); ok && password != "" {
		params = append(params, fmt.Sprintf("password=%s", password))
	}

	sslmode := parsed.Query().Get("sslmode")
	if sslmode == "" {
		sslmode = "disable"
	}
	params = append(params, fmt.Sprintf("sslmode=%s", sslmode))

	return strings.Join(params, " "), nil
}
