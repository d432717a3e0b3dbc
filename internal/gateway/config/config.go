package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"focuslog/internal/focus"
)

type Config struct {
	Port            string
	Env             string
	Notion          NotionConfig
	MatchStrategy   focus.MatchStrategy
	DatabaseURL     string
	Ledger          LedgerConfig
	SubjectCacheTTL time.Duration
	LogFile         string
}

type NotionConfig struct {
	Token       string
	DatabaseID  string
	BaseURL     string
	Version     string
	DayProp     string
	SubjectProp string
	FocusProp   string
}

// Validate names every missing credential.
func (c NotionConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if strings.TrimSpace(c.DatabaseID) == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	if len(missing) > 0 {
		return &focus.ConfigurationError{Missing: missing}
	}
	return nil
}

type LedgerConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c LedgerConfig) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// Load reads .env, then the process flags and environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Args[1:], os.Getenv)
}

func LoadFrom(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if envPort := env("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	appEnv := env("APP_ENV")
	if appEnv == "" {
		appEnv = "local"
	}

	strategy, err := focus.ParseMatchStrategy(env("FOCUS_MATCH_STRATEGY"))
	if err != nil {
		return nil, fmt.Errorf("FOCUS_MATCH_STRATEGY: %w", err)
	}

	ttl := time.Duration(0)
	if raw := env("SUBJECT_CACHE_TTL"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil || ttl < 0 {
			return nil, fmt.Errorf("SUBJECT_CACHE_TTL: invalid duration %q", raw)
		}
	}

	return &Config{
		Port: *port,
		Env:  appEnv,
		Notion: NotionConfig{
			Token:       env("NOTION_TOKEN"),
			DatabaseID:  env("NOTION_DATABASE_ID"),
			BaseURL:     env("NOTION_API_BASE"),
			Version:     env("NOTION_VERSION"),
			DayProp:     env("NOTION_PROP_DAY"),
			SubjectProp: env("NOTION_PROP_SUBJECT"),
			FocusProp:   env("NOTION_PROP_FOCUS"),
		},
		MatchStrategy:   strategy,
		DatabaseURL:     env("DATABASE_URL"),
		Ledger:          loadLedgerConfig(appEnv, env),
		SubjectCacheTTL: ttl,
		LogFile:         env("LOG_FILE"),
	}, nil
}

func loadLedgerConfig(appEnv string, env func(string) string) LedgerConfig {
	if isLocal(appEnv) {
		return localLedgerConfig(env)
	}
	endpoint := env("LEDGER_S3_ENDPOINT")
	return LedgerConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(env("LEDGER_S3_REGION"), "us-east-1"),
		AccessKey: env("LEDGER_S3_ACCESS_KEY"),
		SecretKey: env("LEDGER_S3_SECRET_KEY"),
		Bucket:    firstNonEmpty(env("LEDGER_S3_BUCKET"), "focuslog-ledger"),
		UseSSL:    parseBoolDefault(env("LEDGER_S3_USE_SSL"), true),
	}
}

func isLocal(appEnv string) bool {
	return strings.EqualFold(strings.TrimSpace(appEnv), "local")
}

func parseBoolDefault(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
