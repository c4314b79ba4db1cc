package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds ledger-related configuration
type DatabaseConfig struct {
	DSN         string // sqlite path or postgres URL; empty -> ./docket.db
	DialTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	TextThreshold int // native text below this many chars triggers OCR fallback
}

// LLMConfig holds configuration for the Gemini-backed router and extractor
type LLMConfig struct {
	APIKey          string
	RouterModel     string
	ExtractModel    string
	RouterMaxChars  int
	ExtractMaxChars int
	Timeout         time.Duration
}

// PipelineConfig holds orchestrator configuration
type PipelineConfig struct {
	AnalysisDelay time.Duration // fixed sleep after each analyzed document
}

// LoadConfig loads configuration from a .env file (if present) and the
// process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("LEDGER_DSN", ""),
			DialTimeout: getEnvAsDuration("LEDGER_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			TextThreshold: getEnvAsInt("OCR_TEXT_THRESHOLD", 500),
		},
		LLM: LLMConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			RouterModel:     getEnv("GEMINI_ROUTER_MODEL", "gemini-2.5-flash-lite"),
			ExtractModel:    getEnv("GEMINI_EXTRACT_MODEL", "gemini-flash-latest"),
			RouterMaxChars:  getEnvAsInt("ROUTER_MAX_CHARS", 3000),
			ExtractMaxChars: getEnvAsInt("EXTRACT_MAX_CHARS", 0),
			Timeout:         getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			AnalysisDelay: getEnvAsDuration("ANALYSIS_DELAY", 31*time.Second),
		},
	}
}

// ValidateForLLM checks the parts of the configuration the Gemini-backed
// stages require. The rule-based path has no external credentials.
func (c *Config) ValidateForLLM() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	return nil
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
