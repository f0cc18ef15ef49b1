package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Redis    RedisConfig
	OAuth    OAuthConfig
	Split    SplitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// OAuthConfig 소셜 로그인 provider별 설정
type OAuthConfig struct {
	Kakao  KakaoOAuthConfig
	Naver  NaverOAuthConfig
	Google GoogleOAuthConfig
	Apple  AppleOAuthConfig
}

type KakaoOAuthConfig struct {
	ClientID    string
	RedirectURI string
}

type NaverOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type AppleOAuthConfig struct {
	ClientID string // 앱 번들 ID (id_token의 aud 검증용)
}

// SplitConfig 나눠사기 정책 설정
type SplitConfig struct {
	DefaultRadiusKm float64       // 근처 검색 기본 반경 (km)
	ExpiryAfter     time.Duration // WAITING 상태 유지 기한 (초과 시 자동 취소)
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "onebite"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		OAuth: OAuthConfig{
			Kakao: KakaoOAuthConfig{
				ClientID:    getEnv("KAKAO_CLIENT_ID", ""),
				RedirectURI: getEnv("KAKAO_REDIRECT_URI", "http://localhost:8080/api/auth/kakao/callback"),
			},
			Naver: NaverOAuthConfig{
				ClientID:     getEnv("NAVER_CLIENT_ID", ""),
				ClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
			},
			Google: GoogleOAuthConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/google/callback"),
			},
			Apple: AppleOAuthConfig{
				ClientID: getEnv("APPLE_CLIENT_ID", "com.onebite.app"),
			},
		},
		Split: SplitConfig{
			DefaultRadiusKm: parseFloat(getEnv("SPLIT_DEFAULT_RADIUS_KM", "3.0"), 3.0),
			ExpiryAfter:     parseDuration(getEnv("SPLIT_EXPIRY_AFTER", "168h"), 168*time.Hour),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, defaultValue)
		return defaultValue
	}
	return duration
}

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, defaultValue)
		return defaultValue
	}
	return n
}

func parseFloat(s string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid float %s, using default %.1f", s, defaultValue)
		return defaultValue
	}
	return f
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
