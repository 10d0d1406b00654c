// Package config loads the diagnostic harness configuration. Sources are
// applied in order, later ones winning: built-in defaults, an optional TOML
// file, PROCSHIM_* environment variables, and explicit flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/sunlightlinux/procshim/internal/util"
	"github.com/sunlightlinux/procshim/pkg/console"
	"github.com/sunlightlinux/procshim/pkg/logging"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PROCSHIM_"

// PhaseCount is the number of harness phases.
const PhaseCount = 5

// DefaultChildName is the test child's binary name without suffix.
const DefaultChildName = "testchild"

// Report formats.
const (
	ReportText = "text"
	ReportYAML = "yaml"
	ReportJSON = "json"
)

// Harness holds the settings of `procshim run`.
type Harness struct {
	// BinDir is searched for the test child when Child is empty.
	BinDir string `koanf:"bin_dir"`
	// Child is an explicit path to the test child.
	Child string `koanf:"child"`
	// MissingProgram is the path phase 5 expects not to exist.
	MissingProgram string `koanf:"missing_program"`
	// Phases selects phases to run; empty means all.
	Phases []int `koanf:"phases"`
	// Report is text, yaml or json.
	Report string `koanf:"report"`
	// Color is auto, always or never.
	Color string `koanf:"color"`
	// LogLevel is the diagnostic logger's minimum level.
	LogLevel string `koanf:"log_level"`
	// PollInterval and PollCount drive the status phase.
	PollInterval time.Duration `koanf:"poll_interval"`
	PollCount    int           `koanf:"poll_count"`
}

// Defaults returns the built-in configuration.
func Defaults() Harness {
	return Harness{
		MissingProgram: "./unknown_program",
		Report:         ReportText,
		Color:          string(console.ColorAuto),
		LogLevel:       "info",
		PollInterval:   800 * time.Millisecond,
		PollCount:      5,
	}
}

// Load builds a Harness from defaults, the TOML file at path (skipped when
// path is empty), the environment and overrides. Override keys are the
// koanf tags above.
func Load(path string, overrides map[string]any) (*Harness, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: envKey}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var h Harness
	if err := k.Unmarshal("", &h); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// envKey maps PROCSHIM_POLL_INTERVAL to poll_interval. Lists are
// comma-separated.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	if key == "phases" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return key, parts
	}
	return key, v
}

// Validate checks enumerations and ranges.
func (h *Harness) Validate() error {
	switch h.Report {
	case ReportText, ReportYAML, ReportJSON:
	default:
		return fmt.Errorf("invalid report format %q (want text, yaml or json)", h.Report)
	}
	if _, err := console.ParseColorMode(h.Color); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(h.LogLevel); err != nil {
		return err
	}
	for _, p := range h.Phases {
		if p < 1 || p > PhaseCount {
			return fmt.Errorf("invalid phase %d (want 1-%d)", p, PhaseCount)
		}
	}
	if h.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", h.PollInterval)
	}
	if h.PollCount <= 0 {
		return fmt.Errorf("poll_count must be positive, got %d", h.PollCount)
	}
	if h.MissingProgram == "" {
		return fmt.Errorf("missing_program must not be empty")
	}
	return nil
}

// SelectedPhases returns the phases to run, in ascending order, without
// duplicates.
func (h *Harness) SelectedPhases() []int {
	seen := make(map[int]bool, PhaseCount)
	for _, p := range h.Phases {
		seen[p] = true
	}
	phases := make([]int, 0, PhaseCount)
	for p := 1; p <= PhaseCount; p++ {
		if len(h.Phases) == 0 || seen[p] {
			phases = append(phases, p)
		}
	}
	return phases
}

// ChildPath resolves the test child. An explicit Child wins; otherwise the
// child is looked up in BinDir, defaulting to the running executable's
// directory.
func (h *Harness) ChildPath() (string, error) {
	if h.Child != "" {
		return h.Child, nil
	}
	dir := h.BinDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("no --bin-dir given and executable path unknown: %w", err)
		}
		dir = filepath.Dir(exe)
	}
	return util.CombinePaths(dir, util.ExecutableName(DefaultChildName)), nil
}
