package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	AWS        AWSConfig        `yaml:"aws"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Session    SessionConfig    `yaml:"session"`
	Upload     UploadConfig     `yaml:"upload"`
	Pagination PaginationConfig `yaml:"pagination"`
	Map        MapConfig        `yaml:"map"`
	Geocoding  GeocodingConfig  `yaml:"geocoding"`
	APNs       APNsConfig       `yaml:"apns"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres or memory
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds blob store configuration
type AWSConfig struct {
	Driver    string `yaml:"driver"` // s3 or memory
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`   // S3-compatible endpoint, empty for AWS
	PublicURL string `yaml:"public_url"` // base URL objects are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// SessionConfig holds the browser cookie session configuration
type SessionConfig struct {
	CookieSecret string `yaml:"cookie_secret"`
	MaxAgeDays   int    `yaml:"max_age_days"`
	Secure       bool   `yaml:"secure"`
}

// UploadConfig limits request bodies carrying files
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// PaginationConfig holds the page size of each collection view
type PaginationConfig struct {
	Photos   int `yaml:"photos"`
	Messages int `yaml:"messages"`
	Memories int `yaml:"memories"`
	Events   int `yaml:"events"`
	Recent   int `yaml:"recent"` // dashboard items per collection
}

// MapConfig holds the initial map viewport
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat"`
	CenterLng float64 `yaml:"center_lng"`
	Zoom      int     `yaml:"zoom"`
	NaverKey  string  `yaml:"naver_client_id"`
	KakaoKey  string  `yaml:"kakao_js_key"`
}

// GeocodingConfig holds the address search provider configuration
type GeocodingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// APNsConfig holds push notification configuration; empty KeyPath disables push
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// RateLimitConfig holds the per-IP API request limit
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides and defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate rejects empty signing secrets unless everything runs in memory
func (c *Config) validate() error {
	if c.Database.Driver == "memory" {
		return nil
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret must be set for the %s database driver", c.Database.Driver)
	}
	if c.Session.CookieSecret == "" {
		return fmt.Errorf("session.cookie_secret must be set for the %s database driver", c.Database.Driver)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD":   &c.Database.Password,
		"AWS_S3_BUCKET":       &c.AWS.S3Bucket,
		"AWS_ACCESS_KEY":      &c.AWS.AccessKey,
		"AWS_SECRET_KEY":      &c.AWS.SecretKey,
		"JWT_SECRET":          &c.JWT.Secret,
		"SESSION_SECRET":      &c.Session.CookieSecret,
		"GEOCODING_API_KEY":   &c.Geocoding.APIKey,
		"NAVER_MAP_CLIENT_ID": &c.Map.NaverKey,
		"KAKAO_MAP_JS_KEY":    &c.Map.KakaoKey,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for name, field := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*field = value
		}
	}
	if value, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(value); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.AWS.Driver == "" {
		c.AWS.Driver = "s3"
	}
	if c.JWT.ExpiryDays == 0 {
		c.JWT.ExpiryDays = 30
	}
	if c.Session.MaxAgeDays == 0 {
		c.Session.MaxAgeDays = 30
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 32 << 20
	}
	if c.Pagination.Photos == 0 {
		c.Pagination.Photos = 12
	}
	if c.Pagination.Messages == 0 {
		c.Pagination.Messages = 10
	}
	if c.Pagination.Memories == 0 {
		c.Pagination.Memories = 20
	}
	if c.Pagination.Events == 0 {
		c.Pagination.Events = 10
	}
	if c.Pagination.Recent == 0 {
		c.Pagination.Recent = 5
	}
	if c.Map.Zoom == 0 {
		c.Map.CenterLat = 37.5665
		c.Map.CenterLng = 126.9780
		c.Map.Zoom = 11
	}
	if c.Geocoding.BaseURL == "" {
		c.Geocoding.BaseURL = "https://dapi.kakao.com"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
