// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Secret store backends.
const (
	SecretStoreKeyVault = "keyvault"
	SecretStoreSQLite   = "sqlite"
)

// Mail transports.
const (
	MailTransportGraph = "graph"
	MailTransportSMTP  = "smtp"
)

// Config holds the application configuration loaded from environment variables.
// It is resolved once at startup and passed to each component's constructor.
type Config struct {
	// Secret store.
	SecretStore       string `env:"SECRETWATCH_SECRET_STORE" envDefault:"keyvault"`
	KeyVaultURL       string `env:"SECRETWATCH_KEY_VAULT_URL"`
	VaultClientID     string `env:"SECRETWATCH_VAULT_CLIENT_ID"`
	VaultClientSecret string `env:"SECRETWATCH_VAULT_CLIENT_SECRET"`
	DBPath            string `env:"SECRETWATCH_DB_PATH" envDefault:"secretwatch.db"`
	SecretKeyHex      string `env:"SECRETWATCH_SECRET_KEY"`

	// Identity provider and directory.
	TenantID            string `env:"SECRETWATCH_TENANT_ID,notEmpty"`
	ClientID            string `env:"SECRETWATCH_CLIENT_ID,notEmpty"`
	SecretName          string `env:"SECRETWATCH_SECRET_NAME,notEmpty"`
	DelegatedUserName   string `env:"SECRETWATCH_DELEGATED_USER_NAME,notEmpty"`
	DelegatedUserSecret string `env:"SECRETWATCH_DELEGATED_USER_SECRET,notEmpty"`
	AuthorityHost       string `env:"SECRETWATCH_AUTHORITY_HOST" envDefault:"https://login.microsoftonline.com"`
	GraphBaseURL        string `env:"SECRETWATCH_GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`

	// Notification.
	MailTransport    string `env:"SECRETWATCH_MAIL_TRANSPORT" envDefault:"graph"`
	EmailUserID      string `env:"SECRETWATCH_EMAIL_USER_ID"`
	EmailUserName    string `env:"SECRETWATCH_EMAIL_USER_NAME"`
	EmailUserSecret  string `env:"SECRETWATCH_EMAIL_USER_SECRET"`
	SMTPAddr         string `env:"SECRETWATCH_SMTP_ADDR"`
	SMTPFrom         string `env:"SECRETWATCH_SMTP_FROM"`
	SMTPUsername     string `env:"SECRETWATCH_SMTP_USERNAME"`
	SMTPPasswordName string `env:"SECRETWATCH_SMTP_PASSWORD_SECRET"`
	RecipientAddress string `env:"SECRETWATCH_RECIPIENT_ADDRESS,notEmpty"`
	MailSubject      string `env:"SECRETWATCH_MAIL_SUBJECT" envDefault:"Client secret expiry notification report"`
	ReportNote       string `env:"SECRETWATCH_REPORT_NOTE"`

	// Runtime.
	Schedule    string        `env:"SECRETWATCH_SCHEDULE" envDefault:"0 0 7 * * 0"`
	Timezone    string        `env:"SECRETWATCH_TIMEZONE" envDefault:"UTC"`
	ListenAddr  string        `env:"SECRETWATCH_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	HTTPTimeout time.Duration `env:"SECRETWATCH_HTTP_TIMEOUT" envDefault:"30s"`

	// SecretKey is the decoded SECRETWATCH_SECRET_KEY (32 bytes), or nil when unset.
	SecretKey []byte
	// Location is the parsed SECRETWATCH_TIMEZONE.
	Location *time.Location
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: SECRETWATCH_TENANT_ID, SECRETWATCH_CLIENT_ID, SECRETWATCH_SECRET_NAME,
// SECRETWATCH_DELEGATED_USER_NAME, SECRETWATCH_DELEGATED_USER_SECRET and
// SECRETWATCH_RECIPIENT_ADDRESS. The remaining requirements depend on the
// chosen secret store and mail transport.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadStore reads only the variables needed to open the local secret store.
// It is used by secretctl, which must work before the rest of the
// configuration exists.
func LoadStore() (*Config, error) {
	var store struct {
		DBPath       string `env:"SECRETWATCH_DB_PATH" envDefault:"secretwatch.db"`
		SecretKeyHex string `env:"SECRETWATCH_SECRET_KEY"`
	}
	if err := env.Parse(&store); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	key, err := decodeSecretKey(store.SecretKeyHex)
	if err != nil {
		return nil, err
	}

	return &Config{
		SecretStore:  SecretStoreSQLite,
		DBPath:       store.DBPath,
		SecretKeyHex: store.SecretKeyHex,
		SecretKey:    key,
	}, nil
}

func (c *Config) validate() error {
	switch c.SecretStore {
	case SecretStoreKeyVault:
		if c.KeyVaultURL == "" {
			return fmt.Errorf("SECRETWATCH_KEY_VAULT_URL is required when SECRETWATCH_SECRET_STORE=%s", SecretStoreKeyVault)
		}
		if c.VaultClientID != "" && c.VaultClientSecret == "" {
			return fmt.Errorf("SECRETWATCH_VAULT_CLIENT_SECRET is required when SECRETWATCH_VAULT_CLIENT_ID is set")
		}
	case SecretStoreSQLite:
	default:
		return fmt.Errorf("SECRETWATCH_SECRET_STORE has invalid value %q: expected %q or %q", c.SecretStore, SecretStoreKeyVault, SecretStoreSQLite)
	}

	key, err := decodeSecretKey(c.SecretKeyHex)
	if err != nil {
		return err
	}
	c.SecretKey = key
	if c.SecretStore == SecretStoreSQLite && c.SecretKey == nil {
		return fmt.Errorf("SECRETWATCH_SECRET_KEY is required when SECRETWATCH_SECRET_STORE=%s", SecretStoreSQLite)
	}

	switch c.MailTransport {
	case MailTransportGraph:
		if c.EmailUserID == "" || c.EmailUserName == "" || c.EmailUserSecret == "" {
			return fmt.Errorf("SECRETWATCH_EMAIL_USER_ID, SECRETWATCH_EMAIL_USER_NAME and SECRETWATCH_EMAIL_USER_SECRET are required when SECRETWATCH_MAIL_TRANSPORT=%s", MailTransportGraph)
		}
	case MailTransportSMTP:
		if c.SMTPAddr == "" || c.SMTPFrom == "" {
			return fmt.Errorf("SECRETWATCH_SMTP_ADDR and SECRETWATCH_SMTP_FROM are required when SECRETWATCH_MAIL_TRANSPORT=%s", MailTransportSMTP)
		}
	default:
		return fmt.Errorf("SECRETWATCH_MAIL_TRANSPORT has invalid value %q: expected %q or %q", c.MailTransport, MailTransportGraph, MailTransportSMTP)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("SECRETWATCH_TIMEZONE has invalid value %q: %w", c.Timezone, err)
	}
	c.Location = loc

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("SECRETWATCH_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	return nil
}

// decodeSecretKey parses a 64-character hex string into a 32-byte AES-256 key.
// An empty string yields a nil key.
func decodeSecretKey(v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("SECRETWATCH_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SECRETWATCH_SECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", len(key))
	}
	return key, nil
}
