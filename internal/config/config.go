package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultConfigPath is the path to the canonical comboer defaults file.
const DefaultConfigPath = "config/comboer.defaults.json"

// MassWindow is an accepted invariant-mass range in GeV.
type MassWindow struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ComboConfig is the comboer's tuning. Every field is optional; the Get*
// methods supply defaults for fields the file leaves out.
type ComboConfig struct {
	DebugLevel      *int    `json:"debug_level,omitempty"`
	ShowerSelectTag *string `json:"shower_select_tag,omitempty"`

	// Vertex binning and geometry, cm
	VertexZBinWidth *float64 `json:"vertex_z_bin_width,omitempty"`
	TargetCenterZ   *float64 `json:"target_center_z,omitempty"`
	TargetLength    *float64 `json:"target_length,omitempty"`

	// RF timing, ns
	NumPlusMinusRFBunches *int     `json:"num_plus_minus_rf_bunches,omitempty"`
	RFBunchPeriodNs       *float64 `json:"rf_bunch_period_ns,omitempty"`
	PhotonTimeWindowNs    *float64 `json:"photon_time_window_ns,omitempty"`
	ChargedTimeWindowNs   *float64 `json:"charged_time_window_ns,omitempty"`

	MaxBuildDepth *int                  `json:"max_build_depth,omitempty"`
	MassWindows   map[string]MassWindow `json:"mass_windows,omitempty"`
}

// EmptyComboConfig returns a ComboConfig with every field unset.
func EmptyComboConfig() *ComboConfig {
	return &ComboConfig{}
}

// LoadComboConfig loads and validates a ComboConfig from a JSON file.
// Unknown keys are rejected so that typos do not silently fall back to
// defaults.
func LoadComboConfig(path string) (*ComboConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := EmptyComboConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads DefaultConfigPath, searching the current directory
// and its parents up to the repository root. It returns the path it loaded,
// or EmptyComboConfig and an empty path when no defaults file is present.
func LoadDefaultConfig() (*ComboConfig, string, error) {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/ and cmd/<name>/
		"../../../" + DefaultConfigPath, // from nested subpackages
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := LoadComboConfig(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	return EmptyComboConfig(), "", nil
}

// Validate checks the values that are set.
func (c *ComboConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"vertex_z_bin_width", c.VertexZBinWidth},
		{"target_length", c.TargetLength},
		{"rf_bunch_period_ns", c.RFBunchPeriodNs},
		{"photon_time_window_ns", c.PhotonTimeWindowNs},
		{"charged_time_window_ns", c.ChargedTimeWindowNs},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, *p.v)
		}
	}
	if c.DebugLevel != nil && *c.DebugLevel < 0 {
		return fmt.Errorf("debug_level must be non-negative, got %d", *c.DebugLevel)
	}
	if c.NumPlusMinusRFBunches != nil && *c.NumPlusMinusRFBunches < 0 {
		return fmt.Errorf("num_plus_minus_rf_bunches must be non-negative, got %d", *c.NumPlusMinusRFBunches)
	}
	if c.MaxBuildDepth != nil && *c.MaxBuildDepth < 1 {
		return fmt.Errorf("max_build_depth must be at least 1, got %d", *c.MaxBuildDepth)
	}
	names := make([]string, 0, len(c.MassWindows))
	for name := range c.MassWindows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if w := c.MassWindows[name]; w.Min < 0 || w.Max <= w.Min {
			return fmt.Errorf("mass_windows[%s] must satisfy 0 <= min < max, got [%v, %v]", name, w.Min, w.Max)
		}
	}
	return nil
}

// GetDebugLevel returns the debug_level value or the default.
func (c *ComboConfig) GetDebugLevel() int {
	if c.DebugLevel == nil {
		return 0
	}
	return *c.DebugLevel
}

// GetShowerSelectTag returns the shower_select_tag value or the default.
func (c *ComboConfig) GetShowerSelectTag() string {
	if c.ShowerSelectTag == nil {
		return ""
	}
	return *c.ShowerSelectTag
}

// GetVertexZBinWidth returns the vertex_z_bin_width value or the default.
func (c *ComboConfig) GetVertexZBinWidth() float64 {
	if c.VertexZBinWidth == nil {
		return 10.0
	}
	return *c.VertexZBinWidth
}

// GetTargetCenterZ returns the target_center_z value or the default.
func (c *ComboConfig) GetTargetCenterZ() float64 {
	if c.TargetCenterZ == nil {
		return 65.0
	}
	return *c.TargetCenterZ
}

// GetTargetLength returns the target_length value or the default.
func (c *ComboConfig) GetTargetLength() float64 {
	if c.TargetLength == nil {
		return 30.0
	}
	return *c.TargetLength
}

// GetNumPlusMinusRFBunches returns the override, or nil when each reaction's
// own value applies.
func (c *ComboConfig) GetNumPlusMinusRFBunches() *int {
	return c.NumPlusMinusRFBunches
}

// GetRFBunchPeriodNs returns the rf_bunch_period_ns value or the default.
func (c *ComboConfig) GetRFBunchPeriodNs() float64 {
	if c.RFBunchPeriodNs == nil {
		return 4.008
	}
	return *c.RFBunchPeriodNs
}

// GetPhotonTimeWindowNs returns the photon_time_window_ns value or the default.
func (c *ComboConfig) GetPhotonTimeWindowNs() float64 {
	if c.PhotonTimeWindowNs == nil {
		return 1.5
	}
	return *c.PhotonTimeWindowNs
}

// GetChargedTimeWindowNs returns the charged_time_window_ns value or the default.
func (c *ComboConfig) GetChargedTimeWindowNs() float64 {
	if c.ChargedTimeWindowNs == nil {
		return 1.0
	}
	return *c.ChargedTimeWindowNs
}

// GetMaxBuildDepth returns the max_build_depth value or the default.
func (c *ComboConfig) GetMaxBuildDepth() int {
	if c.MaxBuildDepth == nil {
		return 32
	}
	return *c.MaxBuildDepth
}

// GetMassWindows returns the configured windows, or nil when the built-in
// table applies.
func (c *ComboConfig) GetMassWindows() map[string]MassWindow {
	return c.MassWindows
}
