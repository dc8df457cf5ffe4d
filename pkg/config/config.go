package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Database DatabaseConfig
	OCR      OCRConfig
	IAP      IAPConfig
	JWT      JWTConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DataConfig is the root of the per-device application data directory.
// Images live under <Dir>/scribbleScan/docs/<docId>/<pageId>.jpg.
type DataConfig struct {
	Dir string
}

type DatabaseConfig struct {
	Path string
}

type OCRConfig struct {
	Provider string // "remote" or "mock"
	BaseURL  string
	Model    string
}

// IAPConfig points at the on-device billing bridge that fronts the
// platform billing SDKs.
type IAPConfig struct {
	BridgeURL string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine, environment variables still apply.

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "720"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Data: DataConfig{
			Dir: getEnv("DATA_DIR", "data"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "scribbleScan.db"),
		},
		OCR: OCRConfig{
			Provider: getEnv("OCR_PROVIDER", "remote"),
			BaseURL:  getEnv("OCR_BASE_URL", "https://ollama-minicpm-v-31109354798.us-central1.run.app/api"),
			Model:    getEnv("OCR_MODEL", "minicpm-v:8b-2.6-q4_K_M"),
		},
		IAP: IAPConfig{
			BridgeURL: getEnv("IAP_BRIDGE_URL", "http://localhost:8090"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
