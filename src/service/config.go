// Package service is the sensor data service consumed by the viewer: a gin
// HTTP API over an InfluxDB bucket of station samples. It owns the combined
// readings endpoint (named span or explicit window), the bare-numeric current
// CO2 endpoint and the optional bearer-credential gate in front of both.
package service

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the server's environment-driven configuration.
type Config struct {
	InfluxHost   string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	Measurement  string
	// Password is the bearer credential clients must present. Empty disables
	// authentication (valid for trusted-network deployments).
	Password string
	HTTPPort int
}

// LoadConfig reads configuration from a .env file (when present) and the
// environment.
func LoadConfig() (Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := Config{
		InfluxHost:   envOr("INFLUXDB_HOST", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUXDB_TOKEN"),
		InfluxOrg:    os.Getenv("INFLUXDB_ORG"),
		InfluxBucket: envOr("INFLUXDB_BUCKET", "Temperature"),
		Measurement:  envOr("INFLUXDB_MEASUREMENT", "aht10"),
		Password:     os.Getenv("HTTP_PASSWORD"),
		HTTPPort:     3000,
	}
	if cfg.InfluxToken == "" {
		return cfg, fmt.Errorf("INFLUXDB_TOKEN is not set")
	}
	if cfg.InfluxOrg == "" {
		return cfg, fmt.Errorf("INFLUXDB_ORG is not set")
	}
	if p := os.Getenv("HTTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("HTTP_PORT %q is not a number: %w", p, err)
		}
		cfg.HTTPPort = port
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
