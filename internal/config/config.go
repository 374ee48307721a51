package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"legacy-keeper-go/pkg/logger"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"

	BulkGateAllAccepted = "all_accepted"
	BulkGatePolicy      = "policy"
)

type Config struct {
	HTTPPort       string
	Env            string
	StoreDriver    string
	RequestTimeout time.Duration
	CORSOrigins    []string
	DB             DBConfig
	Supabase       SupabaseConfig
	Storage        StorageConfig
	Invitation     InvitationConfig
	Approval       ApprovalConfig
	RoleCache      RoleCacheConfig
	Redis          RedisConfig
	RabbitMQ       RabbitMQConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	MigrationsDir   string
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	ServiceRoleKey string
	JWTSecret      string
	AuthTimeout    time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type StorageConfig struct {
	TrusteeBucket string
	NomineeBucket string
	PublicBuckets bool
	MaxFileBytes  int64
	Timeout       time.Duration
}

type InvitationConfig struct {
	TTL     time.Duration
	BaseURL string
}

type ApprovalConfig struct {
	BulkGate string
}

type RoleCacheConfig struct {
	Driver string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RabbitMQConfig struct {
	URL            string
	Queue          string
	PublishTimeout time.Duration
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "legacy_keeper"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
			MigrationsDir:   getEnv("DB_MIGRATIONS_DIR", ""),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		Storage: StorageConfig{
			TrusteeBucket: getEnv("STORAGE_TRUSTEE_BUCKET", "trustee-documents"),
			NomineeBucket: getEnv("STORAGE_NOMINEE_BUCKET", "nominee-documents"),
			PublicBuckets: getEnvBool("STORAGE_PUBLIC_BUCKETS", true),
			MaxFileBytes:  int64(getEnvInt("STORAGE_MAX_FILE_BYTES", 5*1024*1024)),
			Timeout:       getEnvDuration("STORAGE_TIMEOUT", 15*time.Second),
		},
		Invitation: InvitationConfig{
			TTL:     getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
			BaseURL: strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		},
		Approval: ApprovalConfig{
			BulkGate: strings.ToLower(getEnv("APPROVAL_BULK_GATE", BulkGateAllAccepted)),
		},
		RoleCache: RoleCacheConfig{
			Driver: strings.ToLower(getEnv("ROLE_CACHE_DRIVER", CacheDriverMemory)),
			TTL:    getEnvDuration("ROLE_CACHE_TTL", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "legacy-keeper"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:            getEnv("RABBITMQ_URL", ""),
			Queue:          getEnv("RABBITMQ_INVITATION_QUEUE", "invitation.events"),
			PublishTimeout: getEnvDuration("RABBITMQ_PUBLISH_TIMEOUT", 3*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.RoleCache.Driver {
	case CacheDriverMemory, CacheDriverRedis, CacheDriverNone:
	default:
		return fmt.Errorf("unsupported ROLE_CACHE_DRIVER %q", c.RoleCache.Driver)
	}
	switch c.Approval.BulkGate {
	case BulkGateAllAccepted, BulkGatePolicy:
	default:
		return fmt.Errorf("unsupported APPROVAL_BULK_GATE %q", c.Approval.BulkGate)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
