// Package config reads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	DatabaseURL string
	Store       string
	SeedPath    string
	LogLevel    string

	RoutingProvider string
	OSRMBaseURL     string
	OSRMProfile     string
	ORSAPIKey       string
	ORSBaseURL      string
	ORSProfile      string
	HTTPTimeout     time.Duration

	RouteCache    string
	RouteCacheTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ScheduleLockPolicy string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Store:       strings.ToLower(Get("STORE", "postgres")),
		SeedPath:    Get("SEED_PATH", "data/seeds/trips.json"),
		LogLevel:    Get("LOG_LEVEL", "info"),

		RoutingProvider: strings.ToLower(Get("ROUTING_PROVIDER", "osrm")),
		OSRMBaseURL:     Get("OSRM_BASE_URL", "https://router.project-osrm.org"),
		OSRMProfile:     Get("OSRM_PROFILE", "driving"),
		ORSAPIKey:       os.Getenv("ORS_API_KEY"),
		ORSBaseURL:      Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:      Get("ORS_PROFILE", "driving-car"),
		HTTPTimeout:     getSeconds("HTTP_TIMEOUT_SECONDS", 10),

		RouteCache:    strings.ToLower(Get("ROUTE_CACHE", "none")),
		RouteCacheTTL: getSeconds("ROUTE_CACHE_TTL_SECONDS", 24*60*60),
		RedisAddr:     Get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		ScheduleLockPolicy: strings.ToLower(Get("SCHEDULE_LOCK_POLICY", "advisory")),
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE=postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE must be postgres or memory, got %q", c.Store))
	}

	switch c.RoutingProvider {
	case "osrm", "mock":
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			errs = append(errs, errors.New("ORS_API_KEY is required when ROUTING_PROVIDER=ors"))
		}
	default:
		errs = append(errs, fmt.Errorf("ROUTING_PROVIDER must be osrm, ors or mock, got %q", c.RoutingProvider))
	}

	switch c.RouteCache {
	case "none", "redis":
	case "sql":
		if c.Store != "postgres" {
			errs = append(errs, errors.New("ROUTE_CACHE=sql requires STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("ROUTE_CACHE must be none, redis or sql, got %q", c.RouteCache))
	}

	switch c.ScheduleLockPolicy {
	case "advisory", "enforce":
	default:
		errs = append(errs, fmt.Errorf("SCHEDULE_LOCK_POLICY must be advisory or enforce, got %q", c.ScheduleLockPolicy))
	}

	return errors.Join(errs...)
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
