package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is the application configuration, parsed from the environment at
// boot. SMTP settings live with the mailer, which parses its own block.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Token  TokenConfig
	Reset  ResetConfig
	Gate   GateConfig
	Push   PushConfig
	Consul ConsulConfig
	Upload UploadConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// Addr returns the host:port pair the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MongoConfig holds the document store connection settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" envDefault:"teamboard"`
}

// TokenConfig holds JWT signing settings.
type TokenConfig struct {
	Issuer               string        `env:"TOKEN_ISSUER"   envDefault:"teamboard"`
	Audience             string        `env:"TOKEN_AUDIENCE" envDefault:"teamboard"`
	AccessTokenSecret    string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiresIn time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"1h"`
	ResetTokenSecret     string        `env:"RESET_TOKEN_SECRET"`
	ResetTokenExpiresIn  time.Duration `env:"RESET_TOKEN_EXPIRES_IN" envDefault:"15m"`
}

// ResetConfig holds the password reset flow settings.
type ResetConfig struct {
	CodeLength   int           `env:"RESET_CODE_LENGTH"    envDefault:"6"`
	CodeTTL      time.Duration `env:"RESET_CODE_TTL"       envDefault:"10m"`
	AttemptLimit int           `env:"RESET_ATTEMPT_LIMIT"  envDefault:"5"`
	SendTimeout  time.Duration `env:"RESET_SEND_TIMEOUT"   envDefault:"10s"`
	MinPassword  int           `env:"PASSWORD_MIN_LENGTH"  envDefault:"6"`
}

// GateConfig holds the request authorization gate settings. RoleRules uses
// the form "/prefix=role|role,/prefix=role"; prefixes listed only in
// ProtectedPrefixes require any authenticated identity.
type GateConfig struct {
	ProtectedPrefixes []string `env:"GATE_PROTECTED_PREFIXES" envSeparator:"," envDefault:"/dashboard,/add-ons,/add-users,/api"`
	RoleRules         string   `env:"GATE_ROLE_RULES"         envDefault:"/add-ons=admin|superadmin,/add-users=superadmin"`
	CookieName        string   `env:"GATE_COOKIE_NAME"        envDefault:"access_token"`
	LoginPath         string   `env:"GATE_LOGIN_PATH"         envDefault:"/login"`
	UnauthorizedPath  string   `env:"GATE_UNAUTHORIZED_PATH"  envDefault:"/unauthorized"`
}

// PushConfig holds the push notification provider settings.
type PushConfig struct {
	Enabled         bool          `env:"PUSH_ENABLED"          envDefault:"false"`
	ProjectID       string        `env:"PUSH_PROJECT_ID"`
	CredentialsFile string        `env:"PUSH_CREDENTIALS_FILE"`
	SendTimeout     time.Duration `env:"PUSH_SEND_TIMEOUT"     envDefault:"5s"`
}

// ConsulConfig holds the service registry settings.
type ConsulConfig struct {
	Enabled     bool   `env:"CONSUL_ENABLED"      envDefault:"false"`
	Address     string `env:"CONSUL_ADDRESS"`
	ServiceName string `env:"CONSUL_SERVICE_NAME" envDefault:"teamboard-api"`
}

// UploadConfig holds file upload limits.
type UploadConfig struct {
	MaxSizeBytes int64 `env:"UPLOAD_MAX_SIZE_BYTES" envDefault:"10485760"`
}

// New creates a Config instance from environment variables.
func New(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks the settings that have no sensible default.
func (c *Config) validate() error {
	if c.Token.AccessTokenSecret == "" {
		return fmt.Errorf("missing ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.ResetTokenSecret == "" {
		return fmt.Errorf("missing RESET_TOKEN_SECRET environment variable")
	}
	if c.Reset.CodeLength < 4 || c.Reset.CodeLength > 10 {
		return fmt.Errorf("RESET_CODE_LENGTH must be between 4 and 10")
	}
	if c.Reset.AttemptLimit < 1 {
		return fmt.Errorf("RESET_ATTEMPT_LIMIT must be at least 1")
	}
	if c.Push.Enabled && (c.Push.ProjectID == "" || c.Push.CredentialsFile == "") {
		return fmt.Errorf("push is enabled but PUSH_PROJECT_ID or PUSH_CREDENTIALS_FILE is missing")
	}
	return nil
}
