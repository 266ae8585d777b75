package config

import (
	"strings"
	"testing"

	"murshid/internal/schedule"
)

const sampleYAML = `
timezone: Africa/Cairo
prayers:
  fajr: "05:00"
  dhuhr: "12:00"
  asr: "15:30"
  maghrib: "18:00"
  isha: "19:30"
habits:
  - id: quran
    name: ورد القرآن
    slot: after_fajr
    requires_justification: true
  - id: walk
    name: مشي نص ساعة
    slot: after_asr
`

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.Matrix = MatrixConfig{
		Homeserver:  "https://matrix.example.org",
		UserID:      "@murshid:example.org",
		AccessToken: "syt_secret",
	}
	cfg.NLP.APIKey = "sk-test"
	return cfg
}

func TestParse(t *testing.T) {
	cfg := validConfig(t)

	if cfg.Timezone != "Africa/Cairo" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.Prayers.Fajr != "05:00" || cfg.Prayers.Isha != "19:30" {
		t.Errorf("prayers = %+v", cfg.Prayers)
	}
	if len(cfg.Habits) != 2 {
		t.Fatalf("habits = %d, want 2", len(cfg.Habits))
	}
	if !cfg.Habits[0].RequiresJustification || cfg.Habits[1].RequiresJustification {
		t.Errorf("requires_justification flags wrong: %+v", cfg.Habits)
	}
	if !schedule.Slot(cfg.Habits[0].Slot).Valid() {
		t.Errorf("slot %q not valid", cfg.Habits[0].Slot)
	}
}

func TestParse_DefaultThresholds(t *testing.T) {
	cfg := validConfig(t)
	want := DefaultThresholds()
	if cfg.Thresholds != want {
		t.Errorf("thresholds = %+v, want %+v", cfg.Thresholds, want)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing homeserver", func(c *Config) { c.Matrix.Homeserver = "" }, "MATRIX_HOMESERVER"},
		{"missing api key", func(c *Config) { c.NLP.APIKey = "" }, "OPENAI_API_KEY"},
		{"missing timezone", func(c *Config) { c.Timezone = "" }, "timezone"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad slot", func(c *Config) { c.Habits[0].Slot = "after_lunch" }, "unknown slot"},
		{"duplicate habit", func(c *Config) { c.Habits[1].ID = "quran" }, "duplicate"},
		{"empty habit name", func(c *Config) { c.Habits[0].Name = " " }, "name"},
		{"threshold out of range", func(c *Config) { c.Thresholds.Confirm = 1.5 }, "within [0, 1]"},
		{"inverted thresholds", func(c *Config) { c.Thresholds.Reject = 0.9 }, "below"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
