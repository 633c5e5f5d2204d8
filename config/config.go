package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"smartblog/internal/domain/constants"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultMaxRequestBodySize = "100KB"
	defaultEnvFile            = ".env"

	defaultAccessTTL                   = 15 * time.Minute
	defaultRefreshTTL                  = 7 * 24 * time.Hour
	defaultVerificationTTL             = 4 * time.Minute
	defaultVerificationCleanupInterval = 10 * time.Minute
	defaultVerificationURL             = "http://localhost:8080/api/auth/accountVerification/"
	defaultMailQueueURL                = "mem://mail"
	defaultMailWorkers                 = 2
	defaultMetricsPath                 = "/metrics"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Token *TokenConfig `json:"token" yaml:"token"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	// Mail configuration for account verification and password reset notifications
	Mail *MailConfig `json:"mail" yaml:"mail"`

	// PubSub configuration for handing mail off to the mail worker
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Metrics *MetricsConfig `json:"metrics" yaml:"metrics"`
}

// SecretKeyConfig holds the symmetric key shared by access and refresh tokens.
type SecretKeyConfig struct {
	JWT string `json:"jwt" yaml:"jwt"`
}

// TokenConfig defines token lifetimes.
type TokenConfig struct {
	AccessTTL  time.Duration `json:"accessTTL" yaml:"accessTTL"`
	RefreshTTL time.Duration `json:"refreshTTL" yaml:"refreshTTL"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost                  int           `json:"bcryptCost" yaml:"bcryptCost"`
	VerificationTTL             time.Duration `json:"verificationTTL" yaml:"verificationTTL"`
	VerificationCleanupInterval time.Duration `json:"verificationCleanupInterval" yaml:"verificationCleanupInterval"`
	// AutoMigrate creates the tables through gorm on start, for local development.
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
}

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength        int      `json:"minLength" yaml:"minLength"`
	MaxLength        int      `json:"maxLength" yaml:"maxLength"`
	RequireUppercase bool     `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool     `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool     `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool     `json:"requireSpecial" yaml:"requireSpecial"`
	ForbiddenWords   []string `json:"forbiddenWords" yaml:"forbiddenWords"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// MailConfig defines how notifications are queued and delivered
type MailConfig struct {
	// Transport: "direct", "pubsub" or "http"
	Transport string `json:"transport" yaml:"transport"`

	// Sender: "smtp" or "log"
	Sender string `json:"sender" yaml:"sender"`

	From       string `json:"from" yaml:"from"`
	SenderName string `json:"senderName" yaml:"senderName"`

	// Prefix the activation token is appended to
	VerificationURL string `json:"verificationURL" yaml:"verificationURL"`

	// gocloud.dev pubsub URL of the in-process queue
	QueueURL string `json:"queueURL" yaml:"queueURL"`
	Workers  int    `json:"workers" yaml:"workers"`

	SMTP SMTPConfig `json:"smtp" yaml:"smtp"`
}

// SMTPConfig defines the SMTP relay used by the smtp sender
type SMTPConfig struct {
	Host     string        `json:"host" yaml:"host"`
	Port     int           `json:"port" yaml:"port"`
	Username string        `json:"username" yaml:"username"`
	Password string        `json:"password" yaml:"password"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// PubSubConfig defines Pub/Sub configuration for the mail transport
type PubSubConfig struct {
	// Google Cloud project ID (for pubsub transport)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for pubsub transport)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Service account key file, application default credentials when empty
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`

	// Mail worker push endpoint (for http transport)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// Audience expected in push OIDC tokens, push auth is skipped when empty
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// searchDirs are tried in order, relative to the working directory, so binaries and tests
// started from a package directory find the same file.
var searchDirs = []string{".", "config", "../config", "../../config"}

// sections are the top-level keys environment variables may override.
var sections = []string{
	"env", "http", "postgres", "secretKey", "token", "auth",
	"passwordStrength", "mail", "pubsub", "metrics",
}

// New loads config.yaml, overlays the environment (after an optional .env file) and fills defaults.
func New() (*Config, error) {
	if err := loadDotEnv(defaultEnvFile); err != nil {
		return nil, err
	}

	cfg, err := Load[Config]("config", searchDirs...)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = replicasFromEnv()
	}

	return cfg, nil
}

// Load decodes <name>.yaml from the first directory containing it. Environment variables
// such as MAIL_SMTP_HOST override the matching key of the file.
func Load[T any](name string, dirs ...string) (*T, error) {
	path, err := findFile(name+".yaml", dirs)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	tree := k.Raw()
	overrides := env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return envPath(key, tree), value
		},
	})
	if err := k.Load(overrides, nil); err != nil {
		return nil, errors.Wrap(err, "read environment overrides")
	}

	cfg := new(T)
	decoder := &mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{DecoderConfig: decoder}); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	return cfg, nil
}

func findFile(name string, dirs []string) (string, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.Errorf("%s not found in %s", name, strings.Join(dirs, ", "))
}

// loadDotEnv exports the variables of an optional .env file. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}

	return nil
}

// applyDefaults fills optional sections so consumers never see nil.
func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Token == nil {
		cfg.Token = &TokenConfig{}
	}
	if cfg.Token.AccessTTL <= 0 {
		cfg.Token.AccessTTL = defaultAccessTTL
	}
	if cfg.Token.RefreshTTL <= 0 {
		cfg.Token.RefreshTTL = defaultRefreshTTL
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.VerificationTTL <= 0 {
		cfg.Auth.VerificationTTL = defaultVerificationTTL
	}
	if cfg.Auth.VerificationCleanupInterval <= 0 {
		cfg.Auth.VerificationCleanupInterval = defaultVerificationCleanupInterval
	}

	if cfg.Mail == nil {
		cfg.Mail = &MailConfig{}
	}
	if cfg.Mail.Transport == "" {
		cfg.Mail.Transport = constants.MailTransportDirect
	}
	if cfg.Mail.Sender == "" {
		cfg.Mail.Sender = constants.MailSenderLog
	}
	if cfg.Mail.VerificationURL == "" {
		cfg.Mail.VerificationURL = defaultVerificationURL
	}
	if cfg.Mail.QueueURL == "" {
		cfg.Mail.QueueURL = defaultMailQueueURL
	}
	if cfg.Mail.Workers <= 0 {
		cfg.Mail.Workers = defaultMailWorkers
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

// envPath maps an environment variable onto a key path, reusing the casing of the loaded
// file: MAIL_VERIFICATIONURL becomes mail.verificationURL. Variables outside the known
// sections, or naming a whole section such as ENV, map to "" and are ignored.
func envPath(envKey string, tree map[string]any) string {
	segments := strings.Split(strings.ToLower(envKey), "_")
	if len(segments) < 2 || !slices.ContainsFunc(sections, func(s string) bool { return strings.EqualFold(s, segments[0]) }) {
		return ""
	}

	path := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		var key string
		key, tree = matchKey(tree, segment)
		path = append(path, key)
	}

	return strings.Join(path, ".")
}

func matchKey(tree map[string]any, segment string) (string, map[string]any) {
	for key, value := range tree {
		if strings.EqualFold(key, segment) {
			child, _ := value.(map[string]any)

			return key, child
		}
	}

	return segment, nil
}

// replicasFromEnv reads POSTGRES_REPLICAS_<n>_{HOST,PORT,USERNAME,PASSWORD} for n = 0, 1, ...
// and stops at the first replica without a host or port.
func replicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig
	for i := 0; ; i++ {
		field := func(name string) string {
			return os.Getenv(fmt.Sprintf("POSTGRES_REPLICAS_%d_%s", i, name))
		}

		replica := postgres.ConnectionConfig{
			Host:     field("HOST"),
			Port:     field("PORT"),
			UserName: field("USERNAME"),
			Password: field("PASSWORD"),
		}
		if replica.Host == "" || replica.Port == "" {
			return replicas
		}
		replicas = append(replicas, replica)
	}
}
