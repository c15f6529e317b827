// Package config reads per-binary settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultOTLPEndpoint = "localhost:4317"

var ErrMissing = errors.New("missing required environment variable")

type Store struct {
	Port             string
	PostgresURL      string
	KafkaBrokers     []string
	OrderPlacedTopic string
	ServiceVersion   string
	OTLPEndpoint     string
}

type Gateway struct {
	Port            string
	StoreServiceURL string
	ServiceVersion  string
	OTLPEndpoint    string
}

type Worker struct {
	KafkaBrokers     []string
	StoreServiceURL  string
	OrderPlacedTopic string
	GroupID          string
	ServiceVersion   string
	OTLPEndpoint     string
}

type Migrate struct {
	PostgresURL    string
	MigrationsPath string
}

// LoadDotEnv loads .env if present. Variables already set win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadStore() (Store, error) {
	postgresURL, err := require("POSTGRES_URL")
	if err != nil {
		return Store{}, err
	}

	return Store{
		Port:             getenv("PORT", "8081"),
		PostgresURL:      postgresURL,
		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderPlacedTopic: getenv("ORDER_PLACED_TOPIC", "order.placed"),
		ServiceVersion:   getenv("SERVICE_VERSION", "0.1.0"),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
	}, nil
}

func LoadGateway() (Gateway, error) {
	storeURL, err := require("STORE_SERVICE_URL")
	if err != nil {
		return Gateway{}, err
	}

	return Gateway{
		Port:            getenv("PORT", "8080"),
		StoreServiceURL: strings.TrimRight(storeURL, "/"),
		ServiceVersion:  getenv("SERVICE_VERSION", "0.1.0"),
		OTLPEndpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
	}, nil
}

func LoadWorker() (Worker, error) {
	brokers := splitCSV(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		return Worker{}, fmt.Errorf("%w: KAFKA_BROKERS", ErrMissing)
	}

	storeURL, err := require("STORE_SERVICE_URL")
	if err != nil {
		return Worker{}, err
	}

	return Worker{
		KafkaBrokers:     brokers,
		StoreServiceURL:  strings.TrimRight(storeURL, "/"),
		OrderPlacedTopic: getenv("ORDER_PLACED_TOPIC", "order.placed"),
		GroupID:          getenv("WORKER_GROUP_ID", "cart-cleanup"),
		ServiceVersion:   getenv("SERVICE_VERSION", "0.1.0"),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
	}, nil
}

func LoadMigrate() (Migrate, error) {
	postgresURL, err := require("POSTGRES_URL")
	if err != nil {
		return Migrate{}, err
	}

	return Migrate{
		PostgresURL:    postgresURL,
		MigrationsPath: getenv("MIGRATIONS_PATH", "file://migrations"),
	}, nil
}

func require(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissing, k)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
