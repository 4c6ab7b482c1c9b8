package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cloudErrors "cloudeng.io/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"medcalc/internal/dayoffset"
	appLog "medcalc/internal/log"
	"medcalc/internal/model"
)

// Defaults applied by Normalize.
const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultCardRefresh = "5 0 * * *"
	DefaultCardOutput  = "/var/lib/medcalc/card.png"
	DefaultCardWidth   = 800
	DefaultCardHeight  = 480
	DefaultCycleDays   = 21
	DefaultCycles      = 6
)

// DefaultMilestones are the post-transplant days exported to calendars.
var DefaultMilestones = []int{7, 14, 21, 30, 60, 100, 180, 365}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ChemoConfig controls the default cycle schedule exported by /api/chemo.ics.
type ChemoConfig struct {
	// CycleDays is the length of one treatment cycle (e.g. 21 or 28).
	CycleDays int `yaml:"cycle_days" json:"cycle_days"`
	// Cycles is the number of planned cycles.
	Cycles int `yaml:"cycles" json:"cycles"`
}

// CardConfig describes the day-count card rendered at /card and captured
// to a PNG on a cron schedule.
type CardConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Kind selects the calculator: "transplant" or "chemo".
	Kind string `yaml:"kind" json:"kind"`
	// StartDate is the procedure / first treatment date (YYYY-MM-DD).
	StartDate string `yaml:"start_date" json:"start_date"`
	// RefreshCron is a standard 5-field cron spec.
	RefreshCron string `yaml:"refresh" json:"refresh"`
	Output      string `yaml:"output" json:"output"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	// Ink reduces the capture to white, black and red for e-paper panels.
	Ink bool `yaml:"ink" json:"ink"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone that defines "today" (e.g. "America/Chicago").
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Links is the resource directory shown on /links.
	Links []model.LinkCategory `yaml:"links" json:"links"`

	// Milestones are the transplant days exported by /api/transplant.ics.
	Milestones []int `yaml:"milestones" json:"milestones"`

	Chemo ChemoConfig `yaml:"chemo" json:"chemo"`
	Card  CardConfig  `yaml:"card" json:"card"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     DefaultListen,
		LogLevel:   "info",
		Links:      model.DefaultLinks(),
		Milestones: append([]int(nil), DefaultMilestones...),
		Chemo: ChemoConfig{
			CycleDays: DefaultCycleDays,
			Cycles:    DefaultCycles,
		},
		Card: CardConfig{
			Kind:        model.Transplant.Slug,
			RefreshCron: DefaultCardRefresh,
			Output:      DefaultCardOutput,
			Width:       DefaultCardWidth,
			Height:      DefaultCardHeight,
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Links == nil {
		c.Links = model.DefaultLinks()
	}
	if len(c.Milestones) == 0 {
		c.Milestones = append([]int(nil), DefaultMilestones...)
	}
	if c.Chemo.CycleDays <= 0 {
		c.Chemo.CycleDays = DefaultCycleDays
	}
	if c.Chemo.Cycles <= 0 {
		c.Chemo.Cycles = DefaultCycles
	}
	if c.Card.Kind == "" {
		c.Card.Kind = model.Transplant.Slug
	}
	if c.Card.RefreshCron == "" {
		c.Card.RefreshCron = DefaultCardRefresh
	}
	if c.Card.Output == "" {
		c.Card.Output = DefaultCardOutput
	}
	if c.Card.Width <= 0 {
		c.Card.Width = DefaultCardWidth
	}
	if c.Card.Height <= 0 {
		c.Card.Height = DefaultCardHeight
	}
}

// Validate reports every problem in c, not just the first.
func (c *Config) Validate() error {
	errs := &cloudErrors.M{}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs.Append(fmt.Errorf("timezone %q: %w", c.Timezone, err))
		}
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		errs.Append(err)
	}
	for _, m := range c.Milestones {
		if m <= 0 {
			errs.Append(fmt.Errorf("milestone %d: must be a positive day count", m))
		}
	}
	for _, cat := range c.Links {
		for _, l := range cat.Links {
			if l.URL == "" {
				errs.Append(fmt.Errorf("link %q in %q: missing url", l.Title, cat.Name))
			}
		}
	}
	if c.Card.Enabled {
		if _, ok := model.PageBySlug(c.Card.Kind); !ok {
			errs.Append(fmt.Errorf("card kind %q: must be transplant or chemo", c.Card.Kind))
		}
		if _, err := dayoffset.ParseDate(c.Card.StartDate); err != nil {
			errs.Append(fmt.Errorf("card start_date: %w", err))
		}
		if _, err := cron.ParseStandard(c.Card.RefreshCron); err != nil {
			errs.Append(fmt.Errorf("card refresh %q: %w", c.Card.RefreshCron, err))
		}
	}
	return errs.Err()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".medcalc-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
