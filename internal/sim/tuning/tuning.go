package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuning carries every layout budget. Values are configuration rather than
// invariants: changing one changes which structures a seed produces.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`
	WorldID         string `yaml:"world_id"`
	SeaLevel        int    `yaml:"sea_level"`

	Mineshaft ChainSpec `yaml:"mineshaft"`
	Fortress  ChainSpec `yaml:"fortress"`
	Monument  GridSpec  `yaml:"monument"`
	Mansion   GridSpec  `yaml:"mansion"`
}

type ChainSpec struct {
	MaxDepth       int  `yaml:"max_depth"`
	LateralRadius  int  `yaml:"lateral_radius"`
	RetryBudget    int  `yaml:"retry_budget"`
	FillerAtLimits bool `yaml:"filler_at_limits"`
	// MinY rejects sites whose lowest block is at or below it. 0 disables.
	MinY int `yaml:"min_y"`
	// TopBelow sinks the finished structure so its top is below this y.
	TopBelow int `yaml:"top_below,omitempty"`
	// HeightRange moves the finished structure to a random base y in range.
	HeightRange []int  `yaml:"height_range,omitempty"`
	Variant     string `yaml:"variant,omitempty"`
}

type GridSpec struct {
	PruneCuts  int `yaml:"prune_cuts"`
	PruneTries int `yaml:"prune_tries"`
	BaseY      int `yaml:"base_y"`
}

// Defaults reproduces the classic generator budgets.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		WorldID:         "overworld",
		SeaLevel:        63,
		Mineshaft: ChainSpec{
			MaxDepth:      8,
			LateralRadius: 80,
			RetryBudget:   1,
			TopBelow:      53,
			Variant:       "normal",
		},
		Fortress: ChainSpec{
			MaxDepth:       30,
			LateralRadius:  112,
			RetryBudget:    5,
			FillerAtLimits: true,
			MinY:           10,
			HeightRange:    []int{48, 70},
		},
		Monument: GridSpec{PruneCuts: 2, PruneTries: 5, BaseY: 39},
		Mansion:  GridSpec{PruneCuts: 1, PruneTries: 4},
	}
}

// Load reads a YAML file over Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	t.WorldID = strings.TrimSpace(t.WorldID)
	t.Mineshaft.Variant = strings.ToLower(strings.TrimSpace(t.Mineshaft.Variant))
	if t.Mineshaft.Variant == "" {
		t.Mineshaft.Variant = "normal"
	}
	for _, c := range []*ChainSpec{&t.Mineshaft, &t.Fortress} {
		if c.RetryBudget <= 0 {
			c.RetryBudget = 1
		}
	}
}

func (t Tuning) Validate() error {
	var errs []error
	if t.WorldID == "" {
		errs = append(errs, errors.New("world_id is required"))
	}
	check := func(name string, c ChainSpec) {
		if c.MaxDepth <= 0 {
			errs = append(errs, fmt.Errorf("%s.max_depth must be > 0", name))
		}
		if c.LateralRadius <= 0 {
			errs = append(errs, fmt.Errorf("%s.lateral_radius must be > 0", name))
		}
		if len(c.HeightRange) != 0 && (len(c.HeightRange) != 2 || c.HeightRange[0] > c.HeightRange[1]) {
			errs = append(errs, fmt.Errorf("%s.height_range must be [min, max]", name))
		}
	}
	check("mineshaft", t.Mineshaft)
	check("fortress", t.Fortress)
	switch t.Mineshaft.Variant {
	case "normal", "mesa":
	default:
		errs = append(errs, fmt.Errorf("mineshaft.variant %q must be normal or mesa", t.Mineshaft.Variant))
	}
	for name, g := range map[string]GridSpec{"monument": t.Monument, "mansion": t.Mansion} {
		if g.PruneCuts < 0 || g.PruneTries < 0 {
			errs = append(errs, fmt.Errorf("%s prune budgets must be >= 0", name))
		}
	}
	return errors.Join(errs...)
}

// Digest is the sha256 of the JSON form. Two servers with equal digests build
// identical structures for the same requests.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
