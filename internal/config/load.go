package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadEnvironment layers the project's .env file, an optional vcheck.yaml and
// VCHECK_* environment variables over cfg. Flags are applied afterwards by the
// commands, so they win over everything loaded here.
func LoadEnvironment(cfg *Config, configFile string) error {
	// Load .env file from project directory
	envPath := filepath.Join(cfg.ProjectPath, ".env")
	if err := godotenv.Load(envPath); err != nil {
		// .env file might not exist, that's okay - use environment variables
		_ = err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(cfg.ProjectPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if v.IsSet("fixtures") {
		cfg.FixturePath = v.GetString("fixtures")
	}
	if v.IsSet("processors") {
		cfg.Processors = v.GetInt("processors")
	}
	if v.IsSet("timeout") {
		cfg.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("output_dir") {
		cfg.OutputJSONDir = v.GetString("output_dir")
	}
	if v.IsSet("output_file") {
		cfg.OutputJSONFile = v.GetString("output_file")
	}
	if v.IsSet("metrics_file") {
		cfg.MetricsFile = v.GetString("metrics_file")
	}
	if v.IsSet("collaborator") {
		cfg.Collaborator.Kind = v.GetString("collaborator")
	}
	if v.IsSet("command") {
		cfg.Collaborator.Command = v.GetString("command")
	}
	if v.IsSet("args") {
		cfg.Collaborator.Args = v.GetStringSlice("args")
	}
	if v.IsSet("script") {
		cfg.Collaborator.Script = v.GetString("script")
	}
	if v.IsSet("workdir") {
		cfg.Collaborator.Dir = v.GetString("workdir")
	}
	if v.IsSet("ignore") {
		cfg.PathsToIgnore = v.GetStringSlice("ignore")
	}

	// Database connection info shares the DB_* names used by most .env files
	if conn := os.Getenv("DB_CONNECTION"); conn != "" {
		cfg.Database.Connection = conn
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		cfg.Database.Port = port
	}
	if user := os.Getenv("DB_USERNAME"); user != "" {
		cfg.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	return nil
}
