// Package config loads Murshid's configuration: a YAML file describing the
// prayer timetable and habit list, plus environment variables for secrets and
// deployment knobs.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"murshid/common/environment"
	"murshid/internal/schedule"
)

// HabitConfig defines one tracked habit.
type HabitConfig struct {
	ID                    string `yaml:"id"`
	Name                  string `yaml:"name"`
	Slot                  string `yaml:"slot"`
	RequiresJustification bool   `yaml:"requires_justification"`
}

// MatrixConfig holds the Matrix connection settings. All values come from the
// environment; access tokens never live in the YAML file.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	Rooms       []string
}

// NLPConfig holds the language-model settings.
type NLPConfig struct {
	APIKey      string
	BaseURL     string
	FastModel   string
	StrongModel string
	Timeout     time.Duration
}

// TranscribeConfig holds the speech-to-text settings.
type TranscribeConfig struct {
	Model   string
	Timeout time.Duration
}

// Thresholds are the confidence and similarity cut-offs driving the
// conversation flow.
type Thresholds struct {
	Reject      float64 `yaml:"reject"`
	ActionFloor float64 `yaml:"action_floor"`
	Confirm     float64 `yaml:"confirm"`
	Duplicate   float64 `yaml:"duplicate"`
}

// Config is the full runtime configuration.
type Config struct {
	DatabasePath string
	Timezone     string             `yaml:"timezone"`
	Prayers      schedule.Timetable `yaml:"prayers"`
	Habits       []HabitConfig      `yaml:"habits"`
	Thresholds   Thresholds         `yaml:"thresholds"`

	Matrix     MatrixConfig
	NLP        NLPConfig
	Transcribe TranscribeConfig
}

// DefaultThresholds returns the standard cut-offs used when the YAML file
// leaves them unset.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Reject:      0.3,
		ActionFloor: 0.6,
		Confirm:     0.85,
		Duplicate:   0.7,
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document into a Config without touching the
// environment. Thresholds left at zero are filled with the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	c.DatabasePath = environment.StringOr("DATABASE_PATH", "./murshid.db")

	c.Matrix.Homeserver = environment.StringOr("MATRIX_HOMESERVER", "")
	c.Matrix.UserID = environment.StringOr("MATRIX_USER_ID", "")
	c.Matrix.AccessToken = environment.StringOr("MATRIX_ACCESS_TOKEN", "")
	c.Matrix.Rooms = environment.StringSliceOr("MATRIX_ROOMS", nil)

	c.NLP.APIKey = environment.StringOr("OPENAI_API_KEY", "")
	c.NLP.BaseURL = environment.StringOr("OPENAI_BASE_URL", "https://api.openai.com/v1")
	c.NLP.FastModel = environment.StringOr("NLP_FAST_MODEL", "gpt-4o-mini")
	c.NLP.StrongModel = environment.StringOr("NLP_STRONG_MODEL", "gpt-4o")
	c.NLP.Timeout = environment.DurationOr("NLP_TIMEOUT", 30*time.Second)

	c.Transcribe.Model = environment.StringOr("TRANSCRIBE_MODEL", "whisper-1")
	c.Transcribe.Timeout = environment.DurationOr("TRANSCRIBE_TIMEOUT", 60*time.Second)

	c.Thresholds.Reject = environment.FloatOr("THRESHOLD_REJECT", c.Thresholds.Reject)
	c.Thresholds.ActionFloor = environment.FloatOr("THRESHOLD_ACTION_FLOOR", c.Thresholds.ActionFloor)
	c.Thresholds.Confirm = environment.FloatOr("THRESHOLD_CONFIRM", c.Thresholds.Confirm)
	c.Thresholds.Duplicate = environment.FloatOr("THRESHOLD_DUPLICATE", c.Thresholds.Duplicate)
}

// Validate returns the first configuration error encountered, or nil.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("config: MATRIX_HOMESERVER is required")
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("config: MATRIX_USER_ID is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("config: MATRIX_ACCESS_TOKEN is required")
	}
	if c.NLP.APIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}

	if c.Timezone == "" {
		return fmt.Errorf("config: timezone must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone: %w", err)
	}

	if err := validateThresholds(c.Thresholds); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Habits))
	for i, h := range c.Habits {
		if strings.TrimSpace(h.ID) == "" {
			return fmt.Errorf("config: habits[%d]: id must not be empty", i)
		}
		if strings.TrimSpace(h.Name) == "" {
			return fmt.Errorf("config: habits[%d] (%s): name must not be empty", i, h.ID)
		}
		if !schedule.Slot(h.Slot).Valid() {
			return fmt.Errorf("config: habits[%d] (%s): unknown slot %q", i, h.ID, h.Slot)
		}
		if _, dup := seen[h.ID]; dup {
			return fmt.Errorf("config: habits[%d]: duplicate id %q", i, h.ID)
		}
		seen[h.ID] = struct{}{}
	}

	return nil
}

func validateThresholds(t Thresholds) error {
	for name, v := range map[string]float64{
		"reject":       t.Reject,
		"action_floor": t.ActionFloor,
		"confirm":      t.Confirm,
		"duplicate":    t.Duplicate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: thresholds.%s must be within [0, 1], got %v", name, v)
		}
	}
	if t.Reject >= t.ActionFloor {
		return fmt.Errorf("config: thresholds.reject (%v) must be below action_floor (%v)", t.Reject, t.ActionFloor)
	}
	if t.ActionFloor >= t.Confirm {
		return fmt.Errorf("config: thresholds.action_floor (%v) must be below confirm (%v)", t.ActionFloor, t.Confirm)
	}
	return nil
}
