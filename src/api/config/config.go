package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN string
	// RedisURL is optional. Empty disables slip event publishing.
	RedisURL string
	Port     string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN: getenv("MYSQL_DSN", "omikuji:omikuji@tcp(127.0.0.1:3306)/omikuji"),
		RedisURL: os.Getenv("REDIS_URL"),
		Port:     getenv("PORT", "8080"),
	}
}
