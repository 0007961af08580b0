package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bandit   BanditConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string

	// Upper bound on one serving request, store and ranker I/O included.
	// Expiry propagates through the request context, so a stalled
	// dependency surfaces as a structured failure instead of a hang.
	RequestTimeoutSeconds int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	// Empty host disables the distributed parameter-cache tier.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// BanditConfig is the tunable surface of the learning engine. Defaults match
// the shipped ranking behavior; every value is overridable per deployment.
type BanditConfig struct {
	ExplorationRate   float64
	AlphaPrior        float64
	BetaPrior         float64
	SimilarityWeight  float64
	BanditWeight      float64
	MinSampleSize     int
	ConfidenceLevel   float64
	MinimumEffectSize float64
	CacheMaxAgeHours  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Cochain Recommendation Engine"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:                  getEnv("PORT", "8080"),
			RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "cochain"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Bandit: BanditConfig{
			ExplorationRate:   getEnvFloat("BANDIT_EXPLORATION_RATE", 0.15),
			AlphaPrior:        getEnvFloat("BANDIT_ALPHA_PRIOR", 2.0),
			BetaPrior:         getEnvFloat("BANDIT_BETA_PRIOR", 2.0),
			SimilarityWeight:  getEnvFloat("BANDIT_SIMILARITY_WEIGHT", 0.7),
			BanditWeight:      getEnvFloat("BANDIT_WEIGHT", 0.3),
			MinSampleSize:     getEnvInt("ABTEST_MIN_SAMPLE_SIZE", 100),
			ConfidenceLevel:   getEnvFloat("ABTEST_CONFIDENCE_LEVEL", 0.95),
			MinimumEffectSize: getEnvFloat("ABTEST_MIN_EFFECT_SIZE", 0.05),
			CacheMaxAgeHours:  getEnvInt("CACHE_MAX_AGE_HOURS", 24),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}
	if cfg.Bandit.ExplorationRate < 0 || cfg.Bandit.ExplorationRate > 1 {
		return nil, errors.New("exploration rate must be within [0, 1]")
	}
	if cfg.Bandit.AlphaPrior <= 0 || cfg.Bandit.BetaPrior <= 0 {
		return nil, errors.New("beta priors must be positive")
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		return nil, errors.New("request timeout must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}
