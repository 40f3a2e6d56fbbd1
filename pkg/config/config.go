package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	GenAI         GenAIConfig
	Telegram      TelegramConfig
	Assistant     AssistantConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIELDWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIELDWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDWORKS_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FIELDWORKS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIELDWORKS_DB_DSN"`
	Driver string `envconfig:"FIELDWORKS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FIELDWORKS_DB_HOST"`
	Port     int    `envconfig:"FIELDWORKS_DB_PORT" default:"5432"`
	User     string `envconfig:"FIELDWORKS_DB_USER"`
	Password string `envconfig:"FIELDWORKS_DB_PASSWORD"`
	Name     string `envconfig:"FIELDWORKS_DB_NAME"`
	SSLMode  string `envconfig:"FIELDWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIELDWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"FIELDWORKS_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIELDWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FIELDWORKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FIELDWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FIELDWORKS_JWT_EXPIRATION_MINUTES" default:"30"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDWORKS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDWORKS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDWORKS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDWORKS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDWORKS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FIELDWORKS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"FIELDWORKS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FIELDWORKS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type GenAIConfig struct {
	APIKey  string        `envconfig:"FIELDWORKS_GENAI_API_KEY"`
	Model   string        `envconfig:"FIELDWORKS_GENAI_MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `envconfig:"FIELDWORKS_GENAI_TIMEOUT" default:"15s"`
}

type TelegramConfig struct {
	BotToken       string        `envconfig:"FIELDWORKS_TELEGRAM_BOT_TOKEN"`
	PollTimeout    time.Duration `envconfig:"FIELDWORKS_TELEGRAM_POLL_TIMEOUT" default:"30s"`
	SendRatePerSec float64       `envconfig:"FIELDWORKS_TELEGRAM_SEND_RATE" default:"25"`
	SendBurst      int           `envconfig:"FIELDWORKS_TELEGRAM_SEND_BURST" default:"5"`
	RequestTimeout time.Duration `envconfig:"FIELDWORKS_TELEGRAM_REQUEST_TIMEOUT" default:"10s"`
}

type AssistantConfig struct {
	LoginFlowTTL   time.Duration `envconfig:"FIELDWORKS_ASSISTANT_LOGIN_FLOW_TTL" default:"10m"`
	HandleTimeout  time.Duration `envconfig:"FIELDWORKS_ASSISTANT_HANDLE_TIMEOUT" default:"25s"`
	WebPortalURL   string        `envconfig:"FIELDWORKS_ASSISTANT_WEB_PORTAL_URL" default:"https://app.fieldworks.local"`
	MaxJobsPerPage int           `envconfig:"FIELDWORKS_ASSISTANT_MAX_JOBS_PER_PAGE" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
