// config/config.go
//
// This package loads the server configuration. Defaults live in the YAML
// below; a file passed with --config is decoded on top of them, so it only
// needs the keys it changes. Command-line flags are applied last (cmd/server).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/planner"
	"gopkg.in/yaml.v3"
)

const defaultConfigYAML = `# billable-planner configuration
server:
  port: 8080
  read_timeout: 15s
  write_timeout: 30s
  cors_origins:
    - http://localhost:3000
    - http://localhost:5173

storage:
  # Use ":memory:" for a throwaway database.
  path: planner.db

log:
  level: info
  # Leave empty to log to stderr only.
  file: ""
  max_size_mb: 50
  max_backups: 5
  max_age_days: 30

planner:
  default_annual_goal: 1800
  daily_cap: 10
  # cap-and-drop | cap-and-redistribute
  allocation_policy: cap-and-drop
  holiday_region: us
  catch_up:
    max_workday_hours: 10
    allow_weekends: false
    weekend_max_hours: 4

scheduler:
  enabled: true
  interval: 1h

# Firm-wide holidays seeded into a user's calendar on first setup.
holidays:
  us:
    - { date: "2025-01-01", label: "New Year's Day" }
    - { date: "2025-01-20", label: "Martin Luther King Jr. Day" }
    - { date: "2025-02-17", label: "Presidents' Day" }
    - { date: "2025-05-26", label: "Memorial Day" }
    - { date: "2025-07-04", label: "Independence Day" }
    - { date: "2025-09-01", label: "Labor Day" }
    - { date: "2025-10-13", label: "Columbus Day" }
    - { date: "2025-11-11", label: "Veterans Day" }
    - { date: "2025-11-27", label: "Thanksgiving Day" }
    - { date: "2025-12-25", label: "Christmas Day" }
    - { date: "2026-01-01", label: "New Year's Day" }
    - { date: "2026-01-19", label: "Martin Luther King Jr. Day" }
    - { date: "2026-02-16", label: "Presidents' Day" }
    - { date: "2026-05-25", label: "Memorial Day" }
    - { date: "2026-07-03", label: "Independence Day (observed)" }
    - { date: "2026-09-07", label: "Labor Day" }
    - { date: "2026-10-12", label: "Columbus Day" }
    - { date: "2026-11-11", label: "Veterans Day" }
    - { date: "2026-11-26", label: "Thanksgiving Day" }
    - { date: "2026-12-25", label: "Christmas Day" }
`

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// StorageConfig points at the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the level and the optional rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// CatchUpConfig holds the defaults for catch-up requests that omit them.
type CatchUpConfig struct {
	MaxWorkdayHours float64 `yaml:"max_workday_hours"`
	AllowWeekends   bool    `yaml:"allow_weekends"`
	WeekendMaxHours float64 `yaml:"weekend_max_hours"`
}

// PlannerConfig holds the planning defaults.
type PlannerConfig struct {
	DefaultAnnualGoal float64       `yaml:"default_annual_goal"`
	DailyCap          float64       `yaml:"daily_cap"`
	AllocationPolicy  string        `yaml:"allocation_policy"`
	HolidayRegion     string        `yaml:"holiday_region"`
	CatchUp           CatchUpConfig `yaml:"catch_up"`
}

// SchedulerConfig drives the goal rollover scheduler.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// HolidayConfig is one (date, label) entry of a regional table.
type HolidayConfig struct {
	Date  string `yaml:"date"`
	Label string `yaml:"label"`
}

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig               `yaml:"server"`
	Storage   StorageConfig              `yaml:"storage"`
	Log       LogConfig                  `yaml:"log"`
	Planner   PlannerConfig              `yaml:"planner"`
	Scheduler SchedulerConfig            `yaml:"scheduler"`
	Holidays  map[string][]HolidayConfig `yaml:"holidays"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	return &cfg
}

// Load decodes path over the defaults. An empty path, or a file that does
// not exist, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Planner.AllocationPolicy = strings.TrimSpace(c.Planner.AllocationPolicy)
	c.Planner.HolidayRegion = strings.ToLower(strings.TrimSpace(c.Planner.HolidayRegion))
}

// Validate checks every value the server relies on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Planner.DefaultAnnualGoal < 0 {
		return fmt.Errorf("planner.default_annual_goal %g must be non-negative", c.Planner.DefaultAnnualGoal)
	}
	if c.Planner.DailyCap <= 0 {
		return fmt.Errorf("planner.daily_cap %g must be positive", c.Planner.DailyCap)
	}
	if _, err := planner.PolicyByName(c.Planner.AllocationPolicy); err != nil {
		return fmt.Errorf("planner.allocation_policy: %w", err)
	}
	if c.Planner.CatchUp.MaxWorkdayHours <= 0 || c.Planner.CatchUp.WeekendMaxHours < 0 {
		return errors.New("planner.catch_up hours must be positive")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive when the scheduler is enabled")
	}
	for region := range c.Holidays {
		if _, err := c.HolidayTable(region); err != nil {
			return err
		}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// HolidayTable converts the entries of region. An unknown region is an empty table.
func (c *Config) HolidayTable(region string) (planner.HolidayTable, error) {
	table := planner.HolidayTable{Region: region}
	for _, h := range c.Holidays[region] {
		d, err := generic.ParseDay(h.Date)
		if err != nil {
			return planner.HolidayTable{}, fmt.Errorf("holidays.%s: %w", region, err)
		}
		table.Entries = append(table.Entries, planner.HolidayEntry{Date: d, Label: h.Label})
	}
	return table, nil
}
