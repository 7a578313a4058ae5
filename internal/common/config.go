package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline configuration.
type Config struct {
	OCR      OCRConfig
	Pipeline PipelineConfig
	AI       AIConfig
}

// OCRConfig holds rasterization and OCR-engine configuration.
type OCRConfig struct {
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Language    string // tesseract language pack, default "spa"
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	MaxPages    int    // 0 = no limit
	PSM         int    // page segmentation mode; 6 = uniform block of text
}

// PipelineConfig holds the tunable decision thresholds of the pipeline.
type PipelineConfig struct {
	MinTextChars             int     // page-1 text below this -> scanned
	QualityFallbackThreshold float64 // tier-1 OCR below this -> basic tier
	IVARate                  float64 // standard Chilean IVA rate
	AggressiveEnhance        bool    // opt-in aggressive preprocessing
}

// AIConfig holds configuration for the optional model-assisted extractor.
type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Language:    getEnv("OCR_LANG", "spa"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			PSM:         getEnvAsInt("OCR_PSM", 6),
		},
		Pipeline: PipelineConfig{
			MinTextChars:             getEnvAsInt("MIN_TEXT_CHARS", 10),
			QualityFallbackThreshold: getEnvAsFloat64("QUALITY_FALLBACK_THRESHOLD", 0.2),
			IVARate:                  getEnvAsFloat64("IVA_RATE", 0.19),
			AggressiveEnhance:        getEnvAsBool("AGGRESSIVE_ENHANCE", false),
		},
		AI: AIConfig{
			BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("AI_API_KEY", ""),
			Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("AI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 45*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.OCR.Language == "" {
		return NewAppError("CONFIG_ERROR", "OCR_LANG is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.Pipeline.QualityFallbackThreshold < 0 || c.Pipeline.QualityFallbackThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "QUALITY_FALLBACK_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.IVARate < 0 || c.Pipeline.IVARate > 1 {
		return NewAppError("CONFIG_ERROR", "IVA_RATE must be in [0,1]", ErrInvalidInput)
	}
	return nil
}
