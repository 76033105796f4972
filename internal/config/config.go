package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CameronXie/prosthesis-orders/internal/credentials"
)

// Environment variables recognised by Load.
const (
	EnvConfigFile                = "CONFIG_FILE"
	EnvPort                      = "PORT"
	EnvCollection                = "COLLECTION"
	EnvDeletePIN                 = "DELETE_PIN"
	EnvCORSAllowedOrigins        = "CORS_ALLOWED_ORIGINS"
	EnvLogLevel                  = "LOG_LEVEL"
	EnvStoreDriver               = "STORE_DRIVER"
	EnvFirebaseCredentialsFile   = "FIREBASE_CREDENTIALS_FILE"
	EnvFirebaseCredentialsBase64 = "FIREBASE_CREDENTIALS_BASE64"
	EnvFirebaseProjectID         = "FIREBASE_PROJECT_ID"
	EnvMongoURI                  = "MONGO_URI"
	EnvMongoDatabase             = "MONGO_DATABASE"
	EnvSQLitePath                = "SQLITE_PATH"
	EnvMailProvider              = "MAIL_PROVIDER"
	EnvEmailJSServiceID          = "EMAILJS_SERVICE_ID"
	EnvEmailJSTemplateID         = "EMAILJS_TEMPLATE_ID"
	EnvEmailJSPublicKey          = "EMAILJS_PUBLIC_KEY"
	EnvEmailJSPrivateKey         = "EMAILJS_PRIVATE_KEY"
	EnvSMTPHost                  = "SMTP_HOST"
	EnvSMTPPort                  = "SMTP_PORT"
	EnvSMTPUser                  = "SMTP_USER"
	EnvSMTPPassword              = "SMTP_PASSWORD"
	EnvSMTPFrom                  = "SMTP_FROM"
	EnvMailTo                    = "MAIL_TO"
)

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverSQLite    = "sqlite"
)

// Mail providers.
const (
	MailProviderEmailJS = "emailjs"
	MailProviderSMTP    = "smtp"
	MailProviderNone    = "none"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port               int
	Collection         string
	DeletePIN          string
	CORSAllowedOrigins []string
	LogLevel           slog.Level

	Store StoreConfig
	Mail  MailConfig
}

type StoreConfig struct {
	Driver    string
	Firestore FirestoreConfig
	Mongo     MongoConfig
	SQLite    SQLiteConfig
}

type FirestoreConfig struct {
	CredentialsFile   string
	CredentialsBase64 string
	ProjectID         string
}

// Credentials returns the fetcher for the service-account JSON, preferring the
// base64 environment value over the file.
func (c FirestoreConfig) Credentials() credentials.Fetcher {
	if c.CredentialsBase64 != "" {
		return credentials.FromBase64Env(EnvFirebaseCredentialsBase64)
	}

	return credentials.FromFile(c.CredentialsFile)
}

type MongoConfig struct {
	URI      string
	Database string
}

type SQLiteConfig struct {
	Path string
}

type MailConfig struct {
	Provider string
	EmailJS  EmailJSConfig
	SMTP     SMTPConfig
}

type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// configFile mirrors the optional YAML file named by CONFIG_FILE.
type configFile struct {
	Server struct {
		Port               int      `yaml:"port"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`
	Auth struct {
		DeletePIN string `yaml:"delete_pin"`
	} `yaml:"auth"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Store struct {
		Driver     string `yaml:"driver"`
		Collection string `yaml:"collection"`
		Firestore  struct {
			CredentialsFile string `yaml:"credentials_file"`
			ProjectID       string `yaml:"project_id"`
		} `yaml:"firestore"`
		Mongo struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"store"`
	Mail struct {
		Provider string `yaml:"provider"`
		EmailJS  struct {
			ServiceID  string `yaml:"service_id"`
			TemplateID string `yaml:"template_id"`
			PublicKey  string `yaml:"public_key"`
			PrivateKey string `yaml:"private_key"`
		} `yaml:"emailjs"`
		SMTP struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
			To       string `yaml:"to"`
		} `yaml:"smtp"`
	} `yaml:"mail"`
}

// Load resolves configuration in priority order: defaults -> CONFIG_FILE -> env,
// then validates it. All validation failures are joined into one error.
func Load() (Config, error) {
	cfg := Config{
		Port:               3000,
		Collection:         "protesis",
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           slog.LevelInfo,
		Store: StoreConfig{
			Driver: DriverFirestore,
			Firestore: FirestoreConfig{
				CredentialsFile: "serviceAccountKey.json",
			},
			Mongo:  MongoConfig{Database: "protesis"},
			SQLite: SQLiteConfig{Path: "protesis.db"},
		},
		Mail: MailConfig{
			Provider: MailProviderEmailJS,
			SMTP:     SMTPConfig{Port: 587},
		},
	}

	if path := env(EnvConfigFile); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	errs := applyEnv(&cfg)
	errs = append(errs, cfg.validate()...)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setInt(&cfg.Port, f.Server.Port)
	if len(f.Server.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = f.Server.CORSAllowedOrigins
	}
	setString(&cfg.DeletePIN, f.Auth.DeletePIN)
	if f.Log.Level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.Log.Level)); err != nil {
			return fmt.Errorf("parse config file %s: log.level: %w", path, err)
		}
	}

	setString(&cfg.Collection, f.Store.Collection)
	setString(&cfg.Store.Driver, f.Store.Driver)
	setString(&cfg.Store.Firestore.CredentialsFile, f.Store.Firestore.CredentialsFile)
	setString(&cfg.Store.Firestore.ProjectID, f.Store.Firestore.ProjectID)
	setString(&cfg.Store.Mongo.URI, f.Store.Mongo.URI)
	setString(&cfg.Store.Mongo.Database, f.Store.Mongo.Database)
	setString(&cfg.Store.SQLite.Path, f.Store.SQLite.Path)

	setString(&cfg.Mail.Provider, f.Mail.Provider)
	setString(&cfg.Mail.EmailJS.ServiceID, f.Mail.EmailJS.ServiceID)
	setString(&cfg.Mail.EmailJS.TemplateID, f.Mail.EmailJS.TemplateID)
	setString(&cfg.Mail.EmailJS.PublicKey, f.Mail.EmailJS.PublicKey)
	setString(&cfg.Mail.EmailJS.PrivateKey, f.Mail.EmailJS.PrivateKey)
	setString(&cfg.Mail.SMTP.Host, f.Mail.SMTP.Host)
	setInt(&cfg.Mail.SMTP.Port, f.Mail.SMTP.Port)
	setString(&cfg.Mail.SMTP.Username, f.Mail.SMTP.User)
	setString(&cfg.Mail.SMTP.Password, f.Mail.SMTP.Password)
	setString(&cfg.Mail.SMTP.From, f.Mail.SMTP.From)
	setString(&cfg.Mail.SMTP.To, f.Mail.SMTP.To)

	return nil
}

func applyEnv(cfg *Config) []error {
	var errs []error

	if v := env(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer: %q", EnvPort, v))
		} else {
			cfg.Port = port
		}
	}

	if v := env(EnvCORSAllowedOrigins); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if v := env(EnvLogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		}
	}

	setString(&cfg.Collection, env(EnvCollection))
	setString(&cfg.DeletePIN, os.Getenv(EnvDeletePIN))
	setString(&cfg.Store.Driver, strings.ToLower(env(EnvStoreDriver)))
	setString(&cfg.Store.Firestore.CredentialsFile, env(EnvFirebaseCredentialsFile))
	setString(&cfg.Store.Firestore.CredentialsBase64, env(EnvFirebaseCredentialsBase64))
	setString(&cfg.Store.Firestore.ProjectID, env(EnvFirebaseProjectID))
	setString(&cfg.Store.Mongo.URI, env(EnvMongoURI))
	setString(&cfg.Store.Mongo.Database, env(EnvMongoDatabase))
	setString(&cfg.Store.SQLite.Path, env(EnvSQLitePath))

	setString(&cfg.Mail.Provider, strings.ToLower(env(EnvMailProvider)))
	setString(&cfg.Mail.EmailJS.ServiceID, env(EnvEmailJSServiceID))
	setString(&cfg.Mail.EmailJS.TemplateID, env(EnvEmailJSTemplateID))
	setString(&cfg.Mail.EmailJS.PublicKey, env(EnvEmailJSPublicKey))
	setString(&cfg.Mail.EmailJS.PrivateKey, env(EnvEmailJSPrivateKey))
	setString(&cfg.Mail.SMTP.Host, env(EnvSMTPHost))
	setString(&cfg.Mail.SMTP.Username, env(EnvSMTPUser))
	setString(&cfg.Mail.SMTP.Password, os.Getenv(EnvSMTPPassword))
	setString(&cfg.Mail.SMTP.From, env(EnvSMTPFrom))
	setString(&cfg.Mail.SMTP.To, env(EnvMailTo))

	if v := env(EnvSMTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer: %q", EnvSMTPPort, v))
		} else {
			cfg.Mail.SMTP.Port = port
		}
	}

	if cfg.Mail.SMTP.From == "" {
		cfg.Mail.SMTP.From = cfg.Mail.SMTP.Username
	}

	return errs
}

func (c *Config) validate() []error {
	var errs []error

	switch {
	case c.DeletePIN == "":
		errs = append(errs, fmt.Errorf("%s is required", EnvDeletePIN))
	case strings.TrimSpace(c.DeletePIN) != c.DeletePIN:
		errs = append(errs, fmt.Errorf("%s must not have leading or trailing whitespace", EnvDeletePIN))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s out of range: %d", EnvPort, c.Port))
	}

	if c.Collection == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", EnvCollection))
	}

	switch c.Store.Driver {
	case DriverFirestore:
		if c.Store.Firestore.CredentialsBase64 == "" && c.Store.Firestore.CredentialsFile == "" {
			errs = append(errs, fmt.Errorf(
				"%s or %s is required for the firestore driver",
				EnvFirebaseCredentialsFile,
				EnvFirebaseCredentialsBase64,
			))
		}
	case DriverMongo:
		if c.Store.Mongo.URI == "" {
			errs = append(errs, fmt.Errorf("%s is required for the mongo driver", EnvMongoURI))
		}
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sqlite driver", EnvSQLitePath))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q", EnvStoreDriver, c.Store.Driver))
	}

	switch c.Mail.Provider {
	case MailProviderEmailJS:
		errs = append(errs, required(map[string]string{
			EnvEmailJSServiceID:  c.Mail.EmailJS.ServiceID,
			EnvEmailJSTemplateID: c.Mail.EmailJS.TemplateID,
			EnvEmailJSPublicKey:  c.Mail.EmailJS.PublicKey,
		})...)
	case MailProviderSMTP:
		errs = append(errs, required(map[string]string{
			EnvSMTPHost:     c.Mail.SMTP.Host,
			EnvSMTPUser:     c.Mail.SMTP.Username,
			EnvSMTPPassword: c.Mail.SMTP.Password,
			EnvMailTo:       c.Mail.SMTP.To,
		})...)
		if c.Mail.SMTP.Port <= 0 || c.Mail.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", EnvSMTPPort, c.Mail.SMTP.Port))
		}
	case MailProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q", EnvMailProvider, c.Mail.Provider))
	}

	return errs
}

// required reports each empty value, in sorted key order.
func required(values map[string]string) []error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []error
	for _, k := range keys {
		if values[k] == "" {
			errs = append(errs, fmt.Errorf("%s is required", k))
		}
	}

	return errs
}

// env returns the trimmed value of key. Secrets are read untrimmed with os.Getenv.
func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
