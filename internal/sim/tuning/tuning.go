package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// MaxTicksPerInput bounds the ticks simulated for one player input.
	MaxTicksPerInput int `yaml:"max_ticks_per_input"`
	// MaxWounds is the last survivable wound count.
	MaxWounds int `yaml:"max_wounds"`
	// DiagonalPermille scales movement cost on diagonal steps.
	DiagonalPermille int `yaml:"diagonal_permille"`

	SnapshotEveryInputs int `yaml:"snapshot_every_inputs"`

	Durations Durations `yaml:"durations"`
	Combat    Combat    `yaml:"combat"`
}

// Durations are base action costs in ticks.
type Durations struct {
	Skip        int `yaml:"skip"`
	Attack      int `yaml:"attack"`
	Shoot       int `yaml:"shoot"`
	Throw       int `yaml:"throw"`
	Smash       int `yaml:"smash"`
	Dig         int `yaml:"dig"`
	Open        int `yaml:"open"`
	Close       int `yaml:"close"`
	PickupBase  int `yaml:"pickup_base"`
	PickupPerKg int `yaml:"pickup_per_kg"`
	Drop        int `yaml:"drop"`
	Wield       int `yaml:"wield"`
	Unwield     int `yaml:"unwield"`
	Wear        int `yaml:"wear"`
	TakeOff     int `yaml:"take_off"`
	Reload      int `yaml:"reload"`
	Read        int `yaml:"read"`
}

type Combat struct {
	SmashDifficulty int `yaml:"smash_difficulty"`
	RangedTarget    int `yaml:"ranged_target"`
	MediumPenalty   int `yaml:"medium_penalty"`
	FarPenalty      int `yaml:"far_penalty"`
	CriticalMargin  int `yaml:"critical_margin"`
	WoundStep       int `yaml:"wound_step"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		MaxTicksPerInput:    10000,
		MaxWounds:           3,
		DiagonalPermille:    1414,
		SnapshotEveryInputs: 50,
		Durations: Durations{
			Skip:        1,
			Attack:      100,
			Shoot:       100,
			Throw:       100,
			Smash:       150,
			Dig:         1000,
			Open:        50,
			Close:       50,
			PickupBase:  20,
			PickupPerKg: 10,
			Drop:        10,
			Wield:       50,
			Unwield:     20,
			Wear:        200,
			TakeOff:     150,
			Reload:      100,
			Read:        600,
		},
		Combat: Combat{
			SmashDifficulty: 4,
			RangedTarget:    4,
			MediumPenalty:   2,
			FarPenalty:      4,
			CriticalMargin:  4,
			WoundStep:       4,
		},
	}
}

// Load overlays the yaml file on Defaults(); keys missing from the file keep
// their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.MaxTicksPerInput <= 0 {
		return fmt.Errorf("max_ticks_per_input must be > 0")
	}
	if t.MaxWounds < 0 {
		return fmt.Errorf("max_wounds must be >= 0")
	}
	if t.DiagonalPermille < 1000 {
		return fmt.Errorf("diagonal_permille must be >= 1000")
	}
	if t.Durations.Skip != 1 {
		return fmt.Errorf("durations.skip must be 1")
	}
	if t.Combat.WoundStep <= 0 {
		return fmt.Errorf("combat.wound_step must be > 0")
	}
	return nil
}
