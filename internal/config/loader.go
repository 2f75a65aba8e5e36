package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/landtitles/internal/db"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Ingestion IngestionConfig
	Export    ExportConfig
	Database  db.Config
}

type ServerConfig struct {
	Port           int
	Env            string
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

type IngestionConfig struct {
	// AllowDatabaseFiles enables Access uploads, which need a host ODBC driver.
	AllowDatabaseFiles bool
	AccessODBCDriver   string
	TempDir            string
	MaxUploadBytes     int64
}

type ExportConfig struct {
	PreviewRows int
	ResultTTL   time.Duration
	DownloadTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log.level", "")

	v.SetDefault("ingestion.allow_database_files", false)
	v.SetDefault("ingestion.access_odbc_driver", "")
	v.SetDefault("ingestion.temp_dir", "")
	v.SetDefault("ingestion.max_upload_bytes", int64(32<<20))

	v.SetDefault("export.preview_rows", 50)
	v.SetDefault("export.result_ttl", 30*time.Minute)
	v.SetDefault("export.download_ttl", 5*time.Minute)

	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.schema", dbDefaults.Schema)
	v.SetDefault("database.max_conns", 0)
}

// Load reads config.yaml from configPath (optional) and applies TITLES_*
// environment overrides, e.g. TITLES_SERVER_PORT or
// TITLES_INGESTION_ALLOW_DATABASE_FILES.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TITLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // allow environment overrides

	if configPath != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			Env:            v.GetString("server.env"),
			AllowedOrigins: splitList(v.GetStringSlice("server.allowed_origins")),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Ingestion: IngestionConfig{
			AllowDatabaseFiles: v.GetBool("ingestion.allow_database_files"),
			AccessODBCDriver:   v.GetString("ingestion.access_odbc_driver"),
			TempDir:            v.GetString("ingestion.temp_dir"),
			MaxUploadBytes:     v.GetInt64("ingestion.max_upload_bytes"),
		},
		Export: ExportConfig{
			PreviewRows: v.GetInt("export.preview_rows"),
			ResultTTL:   v.GetDuration("export.result_ttl"),
			DownloadTTL: v.GetDuration("export.download_ttl"),
		},
		Database: db.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
			Schema:   v.GetString("database.schema"),
			MaxConns: v.GetInt32("database.max_conns"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Ingestion.MaxUploadBytes <= 0 {
		return errors.New("ingestion.max_upload_bytes must be positive")
	}
	if c.Export.PreviewRows <= 0 {
		return errors.New("export.preview_rows must be positive")
	}
	if c.Export.ResultTTL <= 0 || c.Export.DownloadTTL <= 0 {
		return errors.New("export TTLs must be positive")
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
