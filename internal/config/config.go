package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server and the client.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	BasePath string `mapstructure:"base_path"` // e.g. /on-pointe/us-central1 to mirror the emulator layout
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// BackendConfig tells the client where the RPC surface lives.
// Host is the host the client believes it runs on; when it is one of
// LocalHosts the emulator address is used.
type BackendConfig struct {
	Host        string        `mapstructure:"host"`
	EmulatorURL string        `mapstructure:"emulator_url" validate:"required,url"`
	DeployedURL string        `mapstructure:"deployed_url" validate:"required,url"`
	LocalHosts  []string      `mapstructure:"local_hosts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RiskConfig holds the server-side evaluation thresholds.
type RiskConfig struct {
	ACWROrange     float64 `mapstructure:"acwr_orange" validate:"gt=0"`
	ACWRRed        float64 `mapstructure:"acwr_red" validate:"gtfield=ACWROrange"`
	FatigueHigh    float64 `mapstructure:"fatigue_high" validate:"gt=0"`
	SoreHigh       float64 `mapstructure:"sore_high" validate:"gt=0"`
	SleepLow       float64 `mapstructure:"sleep_low" validate:"gte=0"`
	MinChronicDays int     `mapstructure:"min_chronic_days" validate:"gte=1,lte=28"`
	AlertSeverity  string  `mapstructure:"alert_severity" validate:"oneof=yellow orange red"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	return LoadWithEnv(path, "")
}

// LoadWithEnv reads config.yaml from path and, when env is set, merges
// config.<env>.yaml over it. Environment variables win over both files.
func LoadWithEnv(path, env string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, backend.emulator_url -> BACKEND_EMULATOR_URL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	SetDefaults(v)
	if env != "" {
		v.SetDefault("log.env", env)
	}

	if err = readOptional(v.ReadInConfig()); err != nil {
		return
	}
	if env != "" {
		v.SetConfigName("config." + env)
		if err = readOptional(v.MergeInConfig()); err != nil {
			return
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if err = Validate(&config); err != nil {
		return
	}
	return config, nil
}

// readOptional treats a missing config file as empty.
func readOptional(err error) error {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// SetDefaults registers the default value of every key. AutomaticEnv only
// resolves keys viper already knows, so each key needs a default here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5001")
	v.SetDefault("server.base_path", "")
	v.SetDefault("database.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("database.name", "on_pointe")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "on-pointe-reports")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("backend.host", "localhost")
	v.SetDefault("backend.emulator_url", "http://127.0.0.1:5001/on-pointe-prevention/us-central1")
	v.SetDefault("backend.deployed_url", "https://us-central1-on-pointe-prevention.cloudfunctions.net")
	v.SetDefault("backend.local_hosts", []string{"localhost", "127.0.0.1"})
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("risk.acwr_orange", 1.5)
	v.SetDefault("risk.acwr_red", 2.0)
	v.SetDefault("risk.fatigue_high", 8)
	v.SetDefault("risk.sore_high", 7)
	v.SetDefault("risk.sleep_low", 3)
	v.SetDefault("risk.min_chronic_days", 7)
	v.SetDefault("risk.alert_severity", "orange")
	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "info")
}

// Validate runs struct validation over the loaded configuration.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
