package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host                string
	Port                int
	CaptureDirectory    string // Katalog na zapisane zdjęcia z wykryciem
	CascadePath         string
	ModelPath           string
	ClassNamesPath      string
	ModelInputSize      int
	ConfidenceThreshold float64
	NMSThreshold        float64
	ProcessingWorkers   int           // Liczba slotów detektora (kaskada + sieć)
	DetectionTimeout    time.Duration // 0 = bez limitu
	JPEGQuality         int
	DatabasePath        string
	LogDirectory        string
	LogDebug            bool
}

// Load reads an optional .env file and builds the configuration from the environment.
// Variables already set in the environment take precedence over the file.
func Load(envFiles ...string) *Config {
	// Missing .env is not an error; defaults apply.
	_ = godotenv.Load(envFiles...)

	return &Config{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnvAsInt("PORT", 5000),
		CaptureDirectory:    getEnv("CAPTURE_DIR", "captured_images"),
		CascadePath:         getEnv("CASCADE_PATH", filepath.Join("models", "haarcascade_frontalface_default.xml")),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join("models", "yolov5s.onnx")),
		ClassNamesPath:      getEnv("CLASS_NAMES_PATH", filepath.Join("models", "coco.names")),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.25),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		ProcessingWorkers:   getEnvAsInt("PROCESSING_WORKERS", 2),
		DetectionTimeout:    time.Duration(getEnvAsInt("DETECTION_TIMEOUT", 0)) * time.Second,
		JPEGQuality:         getEnvAsInt("JPEG_QUALITY", 75),
		DatabasePath:        getEnv("DATABASE_PATH", filepath.Join("data", "captures.db")),
		LogDirectory:        getEnv("LOG_DIR", "logs"),
		LogDebug:            getEnvAsBool("LOG_DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
