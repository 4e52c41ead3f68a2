package minimind

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/Saroosh05/MiniMindOS/service/parental"
)

// Config is a serialisable representation of the OS configuration. It can be
// populated from YAML or JSON; the zero value inherits package defaults.
type Config struct {
	// DataURL is the base location for persisted state (settings, activity
	// log, file system). Empty disables persistence.
	DataURL  string          `json:"dataURL" yaml:"dataURL"`
	Activity ActivityConfig  `json:"activity" yaml:"activity"`
	Parental parental.Policy `json:"parental" yaml:"parental"`
}

type ActivityConfig struct {
	MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
}

// DefaultConfig returns a Config populated with the stock settings. Callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Activity: ActivityConfig{MaxEntries: 1000},
		Parental: parental.DefaultPolicy(),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Activity.MaxEntries <= 0 {
		return fmt.Errorf("activity.maxEntries must be > 0")
	}
	if c.Parental.DailyLimitMinutes <= 0 {
		return fmt.Errorf("parental.dailyLimitMinutes must be > 0")
	}
	if c.Parental.SessionLimitMinutes <= 0 {
		return fmt.Errorf("parental.sessionLimitMinutes must be > 0")
	}
	return nil
}

// LoadConfig reads a YAML config document from the given URL.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
