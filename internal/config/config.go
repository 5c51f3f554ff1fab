// Package config loads service settings from defaults, an optional config file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	BackendFile   = "file"
	BackendArango = "arango"
)

// Config holds the service settings.
type Config struct {
	Port         string
	DataDir      string
	StoreBackend string

	ArangoHost string
	ArangoPort string
	ArangoUser string
	ArangoPass string
	ArangoURL  string

	BodyLimitMB int
	CORSOrigins string

	VCSTimeout      time.Duration
	VCSMaxRedirects int
	VCSMaxInFlight  int
	PolicyFile      string

	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	KafkaAPIKey    string
	KafkaAPISecret string
}

var defaults = map[string]interface{}{
	"ms_port":           "8080",
	"data_dir":          "/data",
	"store_backend":     BackendFile,
	"arango_host":       "localhost",
	"arango_port":       "8529",
	"arango_user":       "root",
	"arango_pass":       "",
	"arango_url":        "",
	"body_limit_mb":     10,
	"cors_origins":      "*",
	"vcs_timeout":       5 * time.Second,
	"vcs_max_redirects": 3,
	"vcs_max_inflight":  0,
	"policy_file":       "",
	"kafka_brokers":     "",
	"kafka_topic":       "sbom-events",
	"kafka_group_id":    "gost-sbom",
	"kafka_api_key":     "",
	"kafka_api_secret":  "",
}

// Load reads settings. Environment variables (MS_PORT, DATA_DIR, ...) override the
// config file at path, which overrides the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("ms_port"),
		DataDir:         v.GetString("data_dir"),
		StoreBackend:    strings.ToLower(v.GetString("store_backend")),
		ArangoHost:      v.GetString("arango_host"),
		ArangoPort:      v.GetString("arango_port"),
		ArangoUser:      v.GetString("arango_user"),
		ArangoPass:      v.GetString("arango_pass"),
		ArangoURL:       v.GetString("arango_url"),
		BodyLimitMB:     v.GetInt("body_limit_mb"),
		CORSOrigins:     v.GetString("cors_origins"),
		VCSTimeout:      v.GetDuration("vcs_timeout"),
		VCSMaxRedirects: v.GetInt("vcs_max_redirects"),
		VCSMaxInFlight:  v.GetInt("vcs_max_inflight"),
		PolicyFile:      v.GetString("policy_file"),
		KafkaBrokers:    splitList(v.GetString("kafka_brokers")),
		KafkaTopic:      v.GetString("kafka_topic"),
		KafkaGroupID:    v.GetString("kafka_group_id"),
		KafkaAPIKey:     v.GetString("kafka_api_key"),
		KafkaAPISecret:  v.GetString("kafka_api_secret"),
	}

	if cfg.ArangoURL == "" {
		cfg.ArangoURL = "http://" + cfg.ArangoHost + ":" + cfg.ArangoPort
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) check() error {
	switch c.StoreBackend {
	case BackendFile, BackendArango:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("body limit must be positive, got %d MB", c.BodyLimitMB)
	}
	if c.VCSTimeout <= 0 {
		return fmt.Errorf("vcs timeout must be positive, got %s", c.VCSTimeout)
	}
	return nil
}

// BodyLimit is the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// KafkaEnabled reports whether brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
