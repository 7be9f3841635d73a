package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/GormazAR/overlay/internal/pool"
)

// FileName is the config file looked up in the config directory.
const FileName = "gormaz.cfg.json"

// ErrNotFound is returned by Load when the config file does not exist.
// Defaults are still in place.
var ErrNotFound = errors.New("config file not found")

// OverlayConfig holds overlay manager settings.
type OverlayConfig struct {
	ScaleFactor      float64           `json:"scaleFactor" mapstructure:"scaleFactor"`
	DisplayDistance  float64           `json:"displayDistance" mapstructure:"displayDistance"`
	PinWidthFraction float64           `json:"pinWidthFraction" mapstructure:"pinWidthFraction"`
	Pools            []pool.Definition `json:"pools" mapstructure:"pools"`
}

// APIConfig holds the stats backend client settings.
type APIConfig struct {
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SQLiteConfig holds SQLite storage settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// StorageConfig holds stats storage backend settings.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Host      string `json:"host" mapstructure:"host"`
	Port      string `json:"port" mapstructure:"port"`
	Protocol  string `json:"protocol" mapstructure:"protocol"`
	Token     string `json:"token" mapstructure:"token"`
	Org       string `json:"org" mapstructure:"org"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	BackupDir string `json:"backupDir" mapstructure:"backupDir"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GraylogConfig holds the GELF sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// ServerConfig holds stats server settings.
type ServerConfig struct {
	Address         string        `json:"address" mapstructure:"address"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// DefaultPools is the stock three-pool catalog.
func DefaultPools() []pool.Definition {
	return []pool.Definition{
		{ID: "irlDate", Prototype: "overlayDate", Markers: []string{"irlDate"}},
		{ID: "irlSoldier", Prototype: "overlaySoldier", Markers: []string{"irlSoldier"}},
		{ID: "irlMonk", Prototype: "overlayMonk", Markers: []string{"irlMonk"}},
	}
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("device.id", "")

	viper.SetDefault("overlay.scaleFactor", 0.1)
	viper.SetDefault("overlay.displayDistance", 2.0)
	viper.SetDefault("overlay.pinWidthFraction", 0.9)
	defs := make([]map[string]any, 0, 3)
	for _, d := range DefaultPools() {
		defs = append(defs, map[string]any{"id": string(d.ID), "prototype": d.Prototype, "markers": d.Markers})
	}
	viper.SetDefault("overlay.pools", defs)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("server.address", ":5000")
	viper.SetDefault("server.shutdownTimeout", "5s")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./gormaz.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "gormaz")
	viper.SetDefault("db.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "gormaz")
	viper.SetDefault("influx.bucket", "gormaz_stats")
	viper.SetDefault("influx.backupDir", "./influx-backup")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "gormaz-overlay")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w in %s", ErrNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetOverlayConfig returns overlay settings including the pool table.
func GetOverlayConfig() (OverlayConfig, error) {
	cfg := OverlayConfig{
		ScaleFactor:      viper.GetFloat64("overlay.scaleFactor"),
		DisplayDistance:  viper.GetFloat64("overlay.displayDistance"),
		PinWidthFraction: viper.GetFloat64("overlay.pinWidthFraction"),
	}
	if err := viper.UnmarshalKey("overlay.pools", &cfg.Pools); err != nil {
		return OverlayConfig{}, fmt.Errorf("decode overlay.pools: %w", err)
	}
	return cfg, nil
}

// GetAPIConfig returns the stats backend client settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		Timeout:   viper.GetDuration("api.timeout"),
	}
}

// GetStorageConfig returns storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
			SSLMode:  viper.GetString("db.sslMode"),
		},
	}
}

// GetInfluxConfig returns InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:   viper.GetBool("influx.enabled"),
		Host:      viper.GetString("influx.host"),
		Port:      viper.GetString("influx.port"),
		Protocol:  viper.GetString("influx.protocol"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		Bucket:    viper.GetString("influx.bucket"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetServerConfig returns stats server settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:         viper.GetString("server.address"),
		ShutdownTimeout: viper.GetDuration("server.shutdownTimeout"),
	}
}

// DeviceID returns the configured device id, generating and remembering a
// random one when none is set.
func DeviceID() string {
	id := viper.GetString("device.id")
	if id == "" {
		id = uuid.NewString()
		viper.Set("device.id", id)
	}
	return id
}
