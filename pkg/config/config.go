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
	Study    StudyConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type StudyConfig struct {
	ImageDir              string
	PoemsCSV              string
	QuestionsJSON         string
	ReservationTTLMinutes int
	SweepIntervalSeconds  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	ttlMinutes, err := getEnvInt("RESERVATION_TTL_MINUTES", 10)
	if err != nil {
		return nil, errors.New("invalid reservation ttl")
	}

	sweepSeconds, err := getEnvInt("SWEEP_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, errors.New("invalid sweep interval")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Poem Image Evaluation API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "poem_eval"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Study: StudyConfig{
			ImageDir:              getEnv("IMAGE_DIR", ""),
			PoemsCSV:              getEnv("POEMS_CSV", ""),
			QuestionsJSON:         getEnv("QUESTIONS_JSON", ""),
			ReservationTTLMinutes: ttlMinutes,
			SweepIntervalSeconds:  sweepSeconds,
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Study.ImageDir == "" {
		return nil, errors.New("missing image directory")
	}

	if cfg.Study.PoemsCSV == "" {
		return nil, errors.New("missing poems csv path")
	}

	if cfg.Study.QuestionsJSON == "" {
		return nil, errors.New("missing questions json path")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	return strconv.Atoi(val)
}
