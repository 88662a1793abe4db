package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir   string `json:"log_dir"`
	CacheDir string `json:"cache_dir"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Jukebox settings
	Jukebox JukeboxConfig `json:"jukebox"`

	// Spaces archive settings
	Spaces SpacesConfig `json:"spaces"`

	// Shutdown timeout
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type JukeboxConfig struct {
	// Videos longer than this are refused.
	MaxDuration time.Duration `json:"max_duration"`

	LookupTimeout   time.Duration `json:"lookup_timeout"`
	DownloadTimeout time.Duration `json:"download_timeout"`

	// Upper bound on concurrent yt-dlp download processes.
	MaxConcurrentDownloads int `json:"max_concurrent_downloads"`

	YtdlpPath  string `json:"ytdlp_path"`
	FFmpegPath string `json:"ffmpeg_path"`
}

type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval"`
	Burst    int           `json:"burst"`
}

type SpacesConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Server settings
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Minute),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		// Application paths
		LogDir:   getEnv("LOG_DIR", "/var/log/playlist"),
		CacheDir: getEnv("CACHE_DIR", "./cache/audio"),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Interval: getEnvAsDuration("RATE_LIMIT_INTERVAL", time.Second),
			Burst:    getEnvAsInt("RATE_LIMIT_BURST", 5),
		},

		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "/var/lib/playlist/data.db"),
		},

		Jukebox: JukeboxConfig{
			MaxDuration:            getEnvAsDuration("MAX_VIDEO_DURATION", 12*time.Minute),
			LookupTimeout:          getEnvAsDuration("LOOKUP_TIMEOUT", 30*time.Second),
			DownloadTimeout:        getEnvAsDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),
			MaxConcurrentDownloads: getEnvAsInt("MAX_CONCURRENT_DOWNLOADS", 2),
			YtdlpPath:              getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:             getEnv("FFMPEG_PATH", "ffmpeg"),
		},

		Spaces: SpacesConfig{
			Enabled:   getEnvAsBool("SPACES_ENABLED", false),
			AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: getEnv("SPACES_SECRET_KEY", ""),
			Region:    getEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}

	if err := validateTimeouts(c); err != nil {
		return err
	}

	if c.Jukebox.MaxDuration <= 0 {
		return fmt.Errorf("max video duration must be positive")
	}
	if c.Jukebox.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("max concurrent downloads must be positive")
	}

	if c.Spaces.Enabled {
		if c.Spaces.Endpoint == "" || c.Spaces.Bucket == "" {
			return fmt.Errorf("spaces endpoint and bucket are required when spaces is enabled")
		}
	}

	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.CacheDir, "cache directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Jukebox.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
