package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// KeyStore 驱动。
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverNATS     = "nats"
	DriverConsul   = "consul"
	DriverS3       = "s3"
)

// 鉴权模式。
const (
	AuthModeDisabled = "disabled"
	AuthModeAPIKey   = "apikey"
	AuthModeJWT      = "jwt"
)

// Config 聚合服务启动需要的全部配置。
type Config struct {
	HTTPPort           string        `yaml:"http_port"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	RateLimitRequests  int           `yaml:"rate_limit_requests"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window"`

	// 日志配置
	LogLevel      string `yaml:"log_level"`  // debug / info / warn / error
	LogFormat     string `yaml:"log_format"` // json / text
	LogFile       string `yaml:"log_file"`   // 为空时只输出到 stdout
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	// 鉴权配置
	AuthMode  string   `yaml:"auth_mode"`
	APIKeys   []string `yaml:"api_keys"`
	JWTSecret string   `yaml:"jwt_secret"` // HS256 密钥
	JWKSURL   string   `yaml:"jwks_url"`   // RS256/ES256 公钥集

	// KeyStore 配置
	KVDriver   string `yaml:"kv_driver"`
	KVSeedFile string `yaml:"kv_seed_file"` // 仅 memory 驱动使用

	DBHost         string `yaml:"db_host"`
	DBPort         int    `yaml:"db_port"`
	DBUser         string `yaml:"db_user"`
	DBPassword     string `yaml:"db_password"`
	DBName         string `yaml:"db_name"`
	DBSSLMode      string `yaml:"db_ssl_mode"`
	DBMaxOpenConns int    `yaml:"db_max_open_conns"`

	NATSURL    string `yaml:"nats_url"`
	NATSBucket string `yaml:"nats_bucket"`

	ConsulAddress    string `yaml:"consul_address"`
	ConsulToken      string `yaml:"consul_token"`
	ConsulDatacenter string `yaml:"consul_datacenter"`
	ConsulPrefix     string `yaml:"consul_prefix"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"`
}

// Load 从环境变量加载配置，并提供默认值。
func Load() (*Config, error) {
	corsOrigins := parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173"}
	}

	rateLimitRequests, err := parseIntEnv("RATE_LIMIT_REQUESTS", 120)
	if err != nil {
		return nil, err
	}

	rateLimitWindow, err := parseDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	logMaxSize, err := parseIntEnv("LOG_MAX_SIZE_MB", 128)
	if err != nil {
		return nil, err
	}
	logMaxBackups, err := parseIntEnv("LOG_MAX_BACKUPS", 5)
	if err != nil {
		return nil, err
	}
	logMaxAge, err := parseIntEnv("LOG_MAX_AGE_DAYS", 14)
	if err != nil {
		return nil, err
	}

	apiKeys := parseList(os.Getenv("API_KEYS"))
	if len(apiKeys) == 0 {
		// 开发环境默认 key
		apiKeys = []string{"dev-api-key-123456"}
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbMaxOpen, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPPort:           envOrDefault("PORT", "8080"),
		CORSAllowedOrigins: corsOrigins,
		RateLimitRequests:  rateLimitRequests,
		RateLimitWindow:    rateLimitWindow,
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		LogFile:            os.Getenv("LOG_FILE"),
		LogMaxSizeMB:       logMaxSize,
		LogMaxBackups:      logMaxBackups,
		LogMaxAgeDays:      logMaxAge,
		AuthMode:           strings.ToLower(envOrDefault("AUTH_MODE", AuthModeAPIKey)),
		APIKeys:            apiKeys,
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWKSURL:            os.Getenv("JWKS_URL"),
		KVDriver:           strings.ToLower(envOrDefault("KV_DRIVER", DriverMemory)),
		KVSeedFile:         os.Getenv("KV_SEED_FILE"),
		DBHost:             envOrDefault("DB_HOST", "127.0.0.1"),
		DBPort:             dbPort,
		DBUser:             envOrDefault("DB_USER", "kvfiles"),
		DBPassword:         envOrDefault("DB_PASSWORD", "kvfiles"),
		DBName:             envOrDefault("DB_NAME", "kvfiles"),
		DBSSLMode:          envOrDefault("DB_SSL_MODE", "disable"),
		DBMaxOpenConns:     dbMaxOpen,
		NATSURL:            envOrDefault("NATS_URL", "nats://127.0.0.1:4222"),
		NATSBucket:         envOrDefault("NATS_BUCKET", "img_url"),
		ConsulAddress:      envOrDefault("CONSUL_ADDRESS", "127.0.0.1:8500"),
		ConsulToken:        os.Getenv("CONSUL_TOKEN"),
		ConsulDatacenter:   os.Getenv("CONSUL_DATACENTER"),
		ConsulPrefix:       envOrDefault("CONSUL_PREFIX", "kvfiles/"),
		S3Endpoint:         envOrDefault("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:        envOrDefault("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:        envOrDefault("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:           envOrDefault("S3_BUCKET", "kvfiles"),
		S3Region:           envOrDefault("S3_REGION", "us-east-1"),
		S3UseSSL:           parseBoolEnv("S3_USE_SSL", false),
	}, nil
}

// LoadFile 在 Load 的结果之上叠加 YAML 文件；文件内容会先做环境变量展开。
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	cfg.AuthMode = strings.ToLower(cfg.AuthMode)
	cfg.KVDriver = strings.ToLower(cfg.KVDriver)
	return cfg, cfg.Validate()
}

// Validate 校验配置组合是否可用。
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.HTTPPort, validation.Required, validation.By(validPort)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "text")),
		validation.Field(&c.AuthMode, validation.Required,
			validation.In(AuthModeDisabled, AuthModeAPIKey, AuthModeJWT)),
		validation.Field(&c.KVDriver, validation.Required,
			validation.In(DriverMemory, DriverPostgres, DriverNATS, DriverConsul, DriverS3)),
		validation.Field(&c.APIKeys, validation.When(c.AuthMode == AuthModeAPIKey, validation.Required)),
		validation.Field(&c.JWTSecret, validation.When(c.AuthMode == AuthModeJWT && c.JWKSURL == "",
			validation.Required.Error("jwt_secret or jwks_url is required in jwt mode"))),
		validation.Field(&c.DBName, validation.When(c.KVDriver == DriverPostgres, validation.Required)),
		validation.Field(&c.NATSBucket, validation.When(c.KVDriver == DriverNATS, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.KVDriver == DriverS3, validation.Required)),
	); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

func validPort(value any) error {
	port, _ := value.(string)
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("must be a port between 1 and 65535")
	}
	return nil
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}

	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func parseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	lower := strings.ToLower(raw)
	return lower == "true" || lower == "1" || lower == "yes"
}

// PostgresDSN 生成标准 postgres:// 连接串。
func (c *Config) PostgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
