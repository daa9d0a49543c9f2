package config

import (
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config is the backend configuration read from the environment and .env.
type Config struct {
	HTTPPort string
	Insecure bool
	// APITokens maps bearer tokens to owners when Insecure is off.
	APITokens map[string]string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers string
	KafkaTopic   string

	Compression string

	CheckpointsEnabled      bool
	CheckpointRetention     int
	CheckpointRetentionCron string

	EditorAllowList []string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "4001")
	v.SetDefault("INSECURE", true)
	v.SetDefault("API_TOKENS", "")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", ".tmp/db/document.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "document-events")
	v.SetDefault("CONTENT_COMPRESSION", "gzip")
	v.SetDefault("CHECKPOINTS_ENABLED", true)
	v.SetDefault("CHECKPOINT_RETENTION_KEEP", 20)
	v.SetDefault("CHECKPOINT_RETENTION_CRON", "@every 10m")
	v.SetDefault("EDITOR_ALLOW_LIST", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		HTTPPort:                v.GetString("HTTP_PORT"),
		Insecure:                v.GetBool("INSECURE"),
		APITokens:               splitPairs(v.GetString("API_TOKENS")),
		DBDriver:                strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:                   v.GetString("DB_DSN"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		KafkaBrokers:            v.GetString("KAFKA_BROKERS"),
		KafkaTopic:              v.GetString("KAFKA_TOPIC"),
		Compression:             strings.ToLower(v.GetString("CONTENT_COMPRESSION")),
		CheckpointsEnabled:      v.GetBool("CHECKPOINTS_ENABLED"),
		CheckpointRetention:     v.GetInt("CHECKPOINT_RETENTION_KEEP"),
		CheckpointRetentionCron: v.GetString("CHECKPOINT_RETENTION_CRON"),
		EditorAllowList:         splitList(v.GetString("EDITOR_ALLOW_LIST")),
		LogLevel:                v.GetString("LOG_LEVEL"),
		LogFormat:               strings.ToLower(v.GetString("LOG_FORMAT")),
	}
}

func splitList(csv string) []string {
	var out []string
	for _, item := range strings.Split(csv, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// splitPairs parses "token=owner,token=owner".
func splitPairs(csv string) map[string]string {
	pairs := make(map[string]string)
	for _, item := range splitList(csv) {
		token, owner, ok := strings.Cut(item, "=")
		if !ok || token == "" || owner == "" {
			continue
		}
		pairs[strings.TrimSpace(token)] = strings.TrimSpace(owner)
	}
	return pairs
}
