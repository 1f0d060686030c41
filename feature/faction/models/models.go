package models

import (
	"encoding/json"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/utils"
)

// Target layers a weapon can strike. These match the layer tags used in
// faction index documents.
const (
	LayerLand       = "land"
	LayerAir        = "air"
	LayerSurface    = "surface"
	LayerUnderwater = "underwater"
	LayerOrbital    = "orbital"
)

// UnitTypeCommander is the type tag marking hero units.
const UnitTypeCommander = "Commander"

// Metadata describes a faction as listed in the catalog.
type Metadata struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	IconPath    string `json:"icon_path,omitempty"`
	// IsLocal distinguishes user-uploaded factions from bundled ones.
	// Local factions are read from the local store instead of the bucket.
	IsLocal bool `json:"is_local"`
}

// FactionIndex is the ordered list of units belonging to one faction.
// Order carries no meaning beyond stable rendering.
type FactionIndex []UnitIndexEntry

// UnitIndexEntry wraps a unit with its catalog identity and provenance.
type UnitIndexEntry struct {
	Identifier  string   `json:"identifier"`
	DisplayName string   `json:"display_name"`
	UnitTypes   []string `json:"unit_types"`
	// Source is the archive or mod id the unit came from.
	Source string `json:"source,omitempty"`
	// SourceFiles lists the files inside the archive that contributed.
	SourceFiles []string `json:"source_files,omitempty"`
	Unit        Unit     `json:"unit"`
}

// HasUnitType reports whether the entry carries the given type tag.
func (e UnitIndexEntry) HasUnitType(tag string) bool {
	for _, t := range e.UnitTypes {
		if t == tag {
			return true
		}
	}
	return false
}

// Unit is one buildable/spawnable entity. Units are immutable once loaded:
// a re-upload of a local faction replaces them wholesale.
type Unit struct {
	Identifier  string   `json:"identifier"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	UnitTypes   []string `json:"unit_types"`
	// Tier is 1-3, or 0 when the unit has no tier.
	Tier       int   `json:"tier,omitempty"`
	Accessible bool  `json:"accessible"`
	Specs      Specs `json:"specs"`
}

// Specs groups the stat blocks of a unit. Combat and Economy are always
// present; every other group is optional, and absence means "not
// applicable", not zero.
type Specs struct {
	Combat   Combat          `json:"combat"`
	Economy  Economy         `json:"economy"`
	Mobility *Mobility       `json:"mobility,omitempty"`
	Recon    *Recon          `json:"recon,omitempty"`
	Special  *Special        `json:"special,omitempty"`
	Build    *BuildRelations `json:"build,omitempty"`
}

// Combat holds the offensive and defensive stats of a unit.
type Combat struct {
	Health      float64  `json:"health"`
	DPS         *float64 `json:"dps,omitempty"`
	SalvoDamage *float64 `json:"salvo_damage,omitempty"`
	Weapons     []Weapon `json:"weapons,omitempty"`
}

// ResourceAmount is a metal/energy pair.
type ResourceAmount struct {
	Metal  float64 `json:"metal"`
	Energy float64 `json:"energy"`
}

// Economy holds the build cost and resource stats of a unit.
type Economy struct {
	BuildCost float64  `json:"build_cost"`
	BuildRate *float64 `json:"build_rate,omitempty"`
	// ToolEnergyConsumption is the energy drained while the build arm runs.
	ToolEnergyConsumption *float64        `json:"tool_energy_consumption,omitempty"`
	Production            *ResourceAmount `json:"production,omitempty"`
	Consumption           *ResourceAmount `json:"consumption,omitempty"`
	Storage               *ResourceAmount `json:"storage,omitempty"`
	BuildRange            *float64        `json:"build_range,omitempty"`
}

// Mobility holds movement stats. Absent entirely for structures.
type Mobility struct {
	MoveSpeed    float64 `json:"move_speed"`
	TurnSpeed    float64 `json:"turn_speed"`
	Acceleration float64 `json:"acceleration"`
	Brake        float64 `json:"brake"`
}

// Recon holds sensor radii.
type Recon struct {
	Vision           float64 `json:"vision"`
	UnderwaterVision float64 `json:"underwater_vision,omitempty"`
	Radar            float64 `json:"radar,omitempty"`
	Sonar            float64 `json:"sonar,omitempty"`
	OrbitalVision    float64 `json:"orbital_vision,omitempty"`
	OrbitalRadar     float64 `json:"orbital_radar,omitempty"`
}

// Special holds the odd capability flags.
type Special struct {
	Amphibious bool `json:"amphibious,omitempty"`
	Hover      bool `json:"hover,omitempty"`
	// SpawnOnDeath is the identifier of the unit spawned when this one dies.
	SpawnOnDeath string `json:"spawn_on_death,omitempty"`
}

// BuildRelations links a unit to what can build it and what it can build.
type BuildRelations struct {
	BuiltBy []string `json:"built_by,omitempty"`
	Builds  []string `json:"builds,omitempty"`
}

// Weapon is one weapon definition carried by a unit.
type Weapon struct {
	// SafeName is the stable identity key, independent of the localized
	// display name.
	SafeName       string   `json:"safe_name"`
	DisplayName    string   `json:"display_name,omitempty"`
	Count          int      `json:"count"`
	RateOfFire     float64  `json:"rate_of_fire"`
	Damage         float64  `json:"damage"`
	DPS            float64  `json:"dps"`
	SustainedDPS   *float64 `json:"sustained_dps,omitempty"`
	MaxRange       *float64 `json:"max_range,omitempty"`
	SplashDamage   *float64 `json:"splash_damage,omitempty"`
	SplashRadius   *float64 `json:"splash_radius,omitempty"`
	SelfDestruct   bool     `json:"self_destruct,omitempty"`
	DeathExplosion bool     `json:"death_explosion,omitempty"`
	// TargetLayers is the set of domains this weapon can hit.
	TargetLayers []string `json:"target_layers,omitempty"`
}

// UnmarshalJSON decodes a weapon leniently. Community index documents are
// loose about scalar types: depending on the authoring tool, numbers show
// up as strings and flags as 0/1. Scalars are normalized through the
// core/utils conversions; optional fields stay nil when absent.
func (w *Weapon) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	w.SafeName = utils.ToString(raw["safe_name"])
	w.DisplayName = utils.ToString(raw["display_name"])
	w.Count = utils.ToInt(raw["count"])
	w.RateOfFire = utils.ToFloat(raw["rate_of_fire"])
	w.Damage = utils.ToFloat(raw["damage"])
	w.DPS = utils.ToFloat(raw["dps"])
	w.SustainedDPS = optionalFloat(raw, "sustained_dps")
	w.MaxRange = optionalFloat(raw, "max_range")
	w.SplashDamage = optionalFloat(raw, "splash_damage")
	w.SplashRadius = optionalFloat(raw, "splash_radius")
	w.SelfDestruct = utils.ToBool(raw["self_destruct"])
	w.DeathExplosion = utils.ToBool(raw["death_explosion"])

	w.TargetLayers = nil
	if layers, ok := raw["target_layers"].([]any); ok {
		w.TargetLayers = make([]string, 0, len(layers))
		for _, l := range layers {
			w.TargetLayers = append(w.TargetLayers, utils.ToString(l))
		}
	}
	return nil
}

// optionalFloat keeps a missing key distinct from an explicit zero.
func optionalFloat(raw map[string]any, key string) *float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	f := utils.ToFloat(v)
	return &f
}

// ExcludedFromCombat reports whether the weapon is left out of all
// comparison and aggregation paths. Self-destruct and death-explosion
// weapons are not part of sustained combat capability.
func (w Weapon) ExcludedFromCombat() bool {
	return w.SelfDestruct || w.DeathExplosion
}

// CombatWeapons returns the unit's weapons minus self-destruct and
// death-explosion entries.
func (u Unit) CombatWeapons() []Weapon {
	out := make([]Weapon, 0, len(u.Specs.Combat.Weapons))
	for _, w := range u.Specs.Combat.Weapons {
		if w.ExcludedFromCombat() {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Validate checks that the unit satisfies the always-present invariants.
// It returns an empty string when the unit is well formed, otherwise a
// description of the first problem found.
func (u Unit) Validate() string {
	if u.Identifier == "" {
		return "missing identifier"
	}
	if u.DisplayName == "" {
		return "missing display name"
	}
	if u.Specs.Combat.Health <= 0 {
		return "missing combat.health"
	}
	if u.Specs.Economy.BuildCost < 0 {
		return "negative economy.build_cost"
	}
	for _, w := range u.Specs.Combat.Weapons {
		if w.SafeName == "" {
			return "weapon missing safe_name"
		}
	}
	return ""
}
