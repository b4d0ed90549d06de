package lint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/lints"
	tt "github.com/gnolang/reroll/internal/types"
)

// DefaultConfigPath is where the CLI looks for its configuration.
const DefaultConfigPath = ".reroll.yaml"

// Config represents the overall configuration of reroll.
type Config struct {
	Name     string                   `yaml:"name"`
	Rules    map[string]tt.ConfigRule `yaml:"rules"`
	Options  Options                  `yaml:"options"`
	CacheDir string                   `yaml:"cache-dir,omitempty"`
}

// Options tunes the detection of collapsible runs.
type Options struct {
	// MinPeriods and MaxPeriodLen apply when whole files are scanned. A
	// run selected by hand only needs two repetitions of any length.
	MinPeriods        int    `yaml:"min-periods"`
	MaxPeriodLen      int    `yaml:"max-period-len"`
	StrictOccurrences bool   `yaml:"strict-occurrences"`
	RangeOverInt      bool   `yaml:"range-over-int"`
	GoVersion         string `yaml:"go-version,omitempty"`
	Arch              string `yaml:"arch,omitempty"`
}

// Collapse returns the options of the collapse engine.
func (o Options) Collapse() collapse.Options {
	return collapse.Options{
		MinPeriods:        o.MinPeriods,
		MaxPeriodLen:      o.MaxPeriodLen,
		StrictOccurrences: o.StrictOccurrences,
		RangeOverInt:      o.RangeOverInt,
		GoVersion:         o.GoVersion,
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Name: "reroll",
		Rules: map[string]tt.ConfigRule{
			lints.CollapseIntoLoopRule: {
				Severity:   tt.SeverityWarning,
				Confidence: 0.8,
			},
		},
		Options: Options{
			MinPeriods:   3,
			MaxPeriodLen: 8,
			Arch:         "amd64",
		},
	}
}

// LoadConfig reads the configuration at path on top of the defaults. A
// missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return config, nil
}

// WriteConfig writes config to path in YAML.
func WriteConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
