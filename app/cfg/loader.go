package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/emogo.db" description:"Path to the SQLite database file"`
	MediaDir  string `long:"media-dir" env:"MEDIA_DIR" default:"./data/media" description:"Directory where captured vlog videos are stored"`
	ExportDir string `long:"export-dir" env:"EXPORT_DIR" default:"./data/exports" description:"Scratch directory for exports"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl       string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://emogo.example.com)"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	StatsInterval int    `long:"stats-interval" env:"STATS_INTERVAL" default:"5" description:"Home statistics refresh interval in seconds"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	ShareCommand  string `long:"share-command" env:"SHARE_COMMAND" description:"Command used to share exported artifacts; the artifact path is appended (optional)"`
	RemindersFile string `long:"reminders-file" env:"REMINDERS_FILE" description:"YAML file overriding reminder notification content (optional)"`
	Reminders     bool   `long:"reminders" env:"REMINDERS" description:"Schedule the three daily check-in reminders"`
	Export        string `long:"export" env:"EXPORT" choice:"json" choice:"csv" choice:"bundle" description:"Run a single export and exit"`

	// Location configuration
	LocationEnabled bool    `long:"location" env:"LOCATION_ENABLED" description:"Grant location permission for captured entries"`
	LocationURL     string  `long:"location-url" env:"LOCATION_URL" description:"JSON geolocation endpoint; fixed coordinates are used when empty"`
	LocationTimeout int     `long:"location-timeout" env:"LOCATION_TIMEOUT" default:"10" description:"Geolocation request timeout in seconds"`
	Latitude        float64 `long:"latitude" env:"LATITUDE" description:"Fixed latitude used when no geolocation endpoint is set"`
	Longitude       float64 `long:"longitude" env:"LONGITUDE" description:"Fixed longitude used when no geolocation endpoint is set"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"EmoGo/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for local dates (e.g., UTC, Asia/Taipei)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		MediaDir:        raw.MediaDir,
		ExportDir:       raw.ExportDir,
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		WorkerCount:     raw.WorkerCount,
		StatsInterval:   raw.StatsInterval,
		APIAccessKey:    raw.APIAccessKey,
		ShareCommand:    raw.ShareCommand,
		RemindersFile:   raw.RemindersFile,
		Reminders:       raw.Reminders,
		Export:          raw.Export,
		LocationEnabled: raw.LocationEnabled,
		LocationURL:     raw.LocationURL,
		LocationTimeout: raw.LocationTimeout,
		Latitude:        raw.Latitude,
		Longitude:       raw.Longitude,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1")
	}
	if cfg.StatsInterval < 1 {
		return nil, fmt.Errorf("stats interval must be at least 1 second")
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
