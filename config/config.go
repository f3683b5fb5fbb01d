package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	GeneratorHuggingFace = "huggingface"
	GeneratorGemini      = "gemini"
	GeneratorPlaceholder = "placeholder"

	EnhancerGroq    = "groq"
	EnhancerGemini  = "gemini"
	EnhancerKeyword = "keyword"
)

// Settings holds every environment-derived value the server needs.
type Settings struct {
	// Server
	Port        string
	AppURL      string
	BodyLimitMB int

	// Database
	DatabaseURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Redis
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Side-state and queue
	SideStateBackend string
	SideStateTTL     time.Duration
	QueueBackend     string
	Workers          int
	QueueSize        int

	// Image generation
	Generator            string
	HuggingFaceToken     string
	HuggingFaceModel     string
	GenerationRetryDelay time.Duration
	GeminiAPIKey         string
	GeminiImageModel     string
	GeminiTextModel      string

	// Prompt enhancement
	Enhancer   string
	GroqAPIKey string
	GroqModel  string

	// Result archive (optional)
	GCSBucket string
	GCSPrefix string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using environment variables")
	}

	s := &Settings{
		Port:        getEnv("PORT", "3000"),
		AppURL:      getEnv("APP_URL", "http://localhost:3000"),
		BodyLimitMB: getInt("BODY_LIMIT_MB", 110),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getBool("REDIS_USE_TLS", false),

		SideStateBackend: getEnv("SIDE_STATE_BACKEND", BackendMemory),
		SideStateTTL:     getDuration("SIDE_STATE_TTL", 24*time.Hour),
		QueueBackend:     getEnv("QUEUE_BACKEND", BackendMemory),
		Workers:          getInt("WORKERS", 4),
		QueueSize:        getInt("QUEUE_SIZE", 100),

		Generator:            getEnv("GENERATOR", GeneratorHuggingFace),
		HuggingFaceToken:     getEnv("HUGGINGFACE_TOKEN", ""),
		HuggingFaceModel:     getEnv("HUGGINGFACE_MODEL", "stabilityai/stable-diffusion-xl-base-1.0"),
		GenerationRetryDelay: getDuration("GENERATION_RETRY_DELAY", 20*time.Second),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiTextModel:      getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),

		Enhancer:   getEnv("ENHANCER", EnhancerKeyword),
		GroqAPIKey: getEnv("GROQ_API_KEY", ""),
		GroqModel:  getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),

		GCSBucket: getEnv("GCS_BUCKET_NAME", ""),
		GCSPrefix: getEnv("GCS_PREFIX", "results/"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) validate() error {
	if s.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if s.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	for name, backend := range map[string]string{
		"SIDE_STATE_BACKEND": s.SideStateBackend,
		"QUEUE_BACKEND":      s.QueueBackend,
	} {
		switch backend {
		case BackendMemory:
		case BackendRedis:
			if s.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR is required when %s=redis", name)
			}
		default:
			return fmt.Errorf("unsupported %s: %q", name, backend)
		}
	}

	// Workers in other processes read and write the same side-state.
	if s.QueueBackend == BackendRedis && s.SideStateBackend != BackendRedis {
		return fmt.Errorf("SIDE_STATE_BACKEND=redis is required when QUEUE_BACKEND=redis")
	}

	switch s.Generator {
	case GeneratorHuggingFace:
		if s.HuggingFaceToken == "" {
			return fmt.Errorf("HUGGINGFACE_TOKEN is required when GENERATOR=huggingface")
		}
	case GeneratorGemini:
		if s.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when GENERATOR=gemini")
		}
	case GeneratorPlaceholder:
	default:
		return fmt.Errorf("unsupported GENERATOR: %q", s.Generator)
	}

	switch s.Enhancer {
	case EnhancerGroq:
		if s.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required when ENHANCER=groq")
		}
	case EnhancerGemini:
		if s.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when ENHANCER=gemini")
		}
	case EnhancerKeyword:
	default:
		return fmt.Errorf("unsupported ENHANCER: %q", s.Enhancer)
	}

	if s.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	if s.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1")
	}

	return nil
}

// BodyLimit returns the request body cap in bytes.
func (s *Settings) BodyLimit() int {
	return s.BodyLimitMB * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid boolean, using default")
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
	}
	return defaultValue
}
