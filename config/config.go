package config

import (
	"os"
	"time"
)

type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret []byte
	RedisAddr string
	TokenTTL  time.Duration
}

// Load reads configuration from the environment. Every key has a local
// development fallback; main calls godotenv.Load first so a .env file
// can supply these too.
func Load() Config {
	cfg := Config{
		Port:      getenv("PORT", "4000"),
		MongoURI:  getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getenv("MONGO_DB", "vitrin"),
		JWTSecret: []byte(getenv("JWT_SECRET", "your-secret-key")),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		TokenTTL:  72 * time.Hour,
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		}
	}

	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
