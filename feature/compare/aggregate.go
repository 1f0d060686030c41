package compare

import (
	"sort"
	"strings"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"
)

// GroupMember is one entry of an army composition: a unit reference with a
// quantity multiplier.
type GroupMember struct {
	FactionID string `json:"faction_id"`
	UnitID    string `json:"unit_id"`
	Quantity  int    `json:"quantity"`
}

// UnitLookup resolves a group member to its unit, or nil when the unit is
// unknown. Passing a function keeps the aggregator decoupled from the
// faction cache.
type UnitLookup func(factionID, unitID string) *models.Unit

// WeaponSource records which unit contributes an aggregated weapon, and in
// what quantity.
type WeaponSource struct {
	UnitID      string `json:"unit_id"`
	DisplayName string `json:"display_name"`
	Quantity    int    `json:"quantity"`
}

// AggregatedWeapon is one consolidated weapon line of a group: every
// member weapon sharing the same group key folded together.
type AggregatedWeapon struct {
	SafeName     string   `json:"safe_name"`
	TargetLayers []string `json:"target_layers,omitempty"`
	TotalCount   int      `json:"total_count"`
	TotalDamage  float64  `json:"total_damage"`
	TotalDPS     float64  `json:"total_dps"`
	// TotalSustainedDPS is present only when at least one contributing
	// weapon reports a sustained rate different from its burst rate.
	TotalSustainedDPS *float64 `json:"total_sustained_dps,omitempty"`
	// MaxRange is the maximum across colliders, not a sum.
	MaxRange *float64       `json:"max_range,omitempty"`
	Sources  []WeaponSource `json:"sources,omitempty"`
}

// BoolAggregate tracks a capability flag as an (any, all) pair so the UI
// can render the three-way Yes (all) / Some / None state.
type BoolAggregate struct {
	Any bool `json:"any"`
	All bool `json:"all"`
}

// AggregatedGroupStats is the synthetic "army" statistics record for a
// composition of units. Returned as nil, never zero-valued, when no member
// resolves.
type AggregatedGroupStats struct {
	// UnitCount is the sum of member quantities.
	UnitCount int `json:"unit_count"`
	// DistinctUnitTypes is the number of resolved members.
	DistinctUnitTypes int `json:"distinct_unit_types"`

	// Linear fields: sum x quantity.
	TotalHealth                float64               `json:"total_health"`
	TotalBuildCost             float64               `json:"total_build_cost"`
	TotalDPS                   float64               `json:"total_dps"`
	TotalSalvoDamage           float64               `json:"total_salvo_damage"`
	TotalBuildRate             float64               `json:"total_build_rate"`
	TotalToolEnergyConsumption float64               `json:"total_tool_energy_consumption"`
	Production                 models.ResourceAmount `json:"production"`
	Consumption                models.ResourceAmount `json:"consumption"`
	Storage                    models.ResourceAmount `json:"storage"`

	// Mobility minimums, one sample per distinct unit type: a mixed group
	// moves at its slowest member's pace no matter how many fast units
	// accompany it. Nil when no member has mobility.
	MinMoveSpeed    *float64 `json:"min_move_speed,omitempty"`
	MinTurnSpeed    *float64 `json:"min_turn_speed,omitempty"`
	MinAcceleration *float64 `json:"min_acceleration,omitempty"`
	MinBrake        *float64 `json:"min_brake,omitempty"`

	// Sensor/reach maximums across unit types.
	MaxVision           *float64 `json:"max_vision,omitempty"`
	MaxUnderwaterVision *float64 `json:"max_underwater_vision,omitempty"`
	MaxRadar            *float64 `json:"max_radar,omitempty"`
	MaxSonar            *float64 `json:"max_sonar,omitempty"`
	MaxBuildRange       *float64 `json:"max_build_range,omitempty"`
	// MaxWeaponRange is taken from the consolidated weapon list.
	MaxWeaponRange *float64 `json:"max_weapon_range,omitempty"`

	Amphibious BoolAggregate `json:"amphibious"`
	Hover      BoolAggregate `json:"hover"`

	// TargetLayers is the sorted union of layers reachable by any
	// non-excluded weapon in the group.
	TargetLayers []string `json:"target_layers,omitempty"`
	// Builds is the sorted union of buildable unit ids across members.
	Builds []string `json:"builds,omitempty"`

	// Weapons is the consolidated list, sorted by total dps descending.
	Weapons []AggregatedWeapon `json:"weapons"`

	// Ratios are computed only when total cost is nonzero; division by
	// zero is never coerced to 0 or Inf.
	DPSPerCost *float64 `json:"dps_per_cost,omitempty"`
	HPPerCost  *float64 `json:"hp_per_cost,omitempty"`
}

// WeaponGroupKey is the consolidation key for folding identical weapons
// together: safe name plus the sorted target layers. The comparison surfaces
// reuse this exact key so every view agrees on what "the same weapon" means.
func WeaponGroupKey(w models.Weapon) string {
	layers := append([]string(nil), w.TargetLayers...)
	sort.Strings(layers)
	return w.SafeName + "|" + strings.Join(layers, ",")
}

// AggregateGroupStats folds the members into one synthetic statistics
// record. Members whose unit cannot be resolved are dropped; if nothing
// resolves the result is nil, a deliberate "no data" signal distinct from a
// zero-valued aggregate.
func AggregateGroupStats(members []GroupMember, lookup UnitLookup) *AggregatedGroupStats {
	type resolved struct {
		unit     *models.Unit
		quantity int
	}
	var units []resolved
	for _, m := range members {
		qty := m.Quantity
		if qty < 1 {
			qty = 1
		}
		if u := lookup(m.FactionID, m.UnitID); u != nil {
			units = append(units, resolved{unit: u, quantity: qty})
		}
	}
	if len(units) == 0 {
		return nil
	}

	stats := &AggregatedGroupStats{
		DistinctUnitTypes: len(units),
		Amphibious:        BoolAggregate{All: true},
		Hover:             BoolAggregate{All: true},
	}

	type weaponAccum struct {
		agg          *AggregatedWeapon
		hasSustained bool
		sustainedSum float64
	}
	weaponIndex := make(map[string]*weaponAccum)
	var weaponOrder []string
	layerSet := make(map[string]struct{})
	buildSet := make(map[string]struct{})

	for _, r := range units {
		u := r.unit
		qty := float64(r.quantity)
		stats.UnitCount += r.quantity

		c := u.Specs.Combat
		stats.TotalHealth += c.Health * qty
		if c.DPS != nil {
			stats.TotalDPS += *c.DPS * qty
		}
		if c.SalvoDamage != nil {
			stats.TotalSalvoDamage += *c.SalvoDamage * qty
		}

		e := u.Specs.Economy
		stats.TotalBuildCost += e.BuildCost * qty
		if e.BuildRate != nil {
			stats.TotalBuildRate += *e.BuildRate * qty
		}
		if e.ToolEnergyConsumption != nil {
			stats.TotalToolEnergyConsumption += *e.ToolEnergyConsumption * qty
		}
		if e.Production != nil {
			stats.Production.Metal += e.Production.Metal * qty
			stats.Production.Energy += e.Production.Energy * qty
		}
		if e.Consumption != nil {
			stats.Consumption.Metal += e.Consumption.Metal * qty
			stats.Consumption.Energy += e.Consumption.Energy * qty
		}
		if e.Storage != nil {
			stats.Storage.Metal += e.Storage.Metal * qty
			stats.Storage.Energy += e.Storage.Energy * qty
		}
		if e.BuildRange != nil {
			keepMax(&stats.MaxBuildRange, *e.BuildRange)
		}

		// One sample per unit type: quantity does not make a group faster
		// or slower.
		if m := u.Specs.Mobility; m != nil {
			keepMin(&stats.MinMoveSpeed, m.MoveSpeed)
			keepMin(&stats.MinTurnSpeed, m.TurnSpeed)
			keepMin(&stats.MinAcceleration, m.Acceleration)
			keepMin(&stats.MinBrake, m.Brake)
		}

		if rec := u.Specs.Recon; rec != nil {
			keepMax(&stats.MaxVision, rec.Vision)
			keepMax(&stats.MaxUnderwaterVision, rec.UnderwaterVision)
			keepMax(&stats.MaxRadar, rec.Radar)
			keepMax(&stats.MaxSonar, rec.Sonar)
		}

		amphibious, hover := false, false
		if s := u.Specs.Special; s != nil {
			amphibious, hover = s.Amphibious, s.Hover
		}
		stats.Amphibious.Any = stats.Amphibious.Any || amphibious
		stats.Amphibious.All = stats.Amphibious.All && amphibious
		stats.Hover.Any = stats.Hover.Any || hover
		stats.Hover.All = stats.Hover.All && hover

		if b := u.Specs.Build; b != nil {
			for _, id := range b.Builds {
				buildSet[id] = struct{}{}
			}
		}

		for _, w := range u.CombatWeapons() {
			for _, l := range w.TargetLayers {
				layerSet[l] = struct{}{}
			}

			key := WeaponGroupKey(w)
			acc, ok := weaponIndex[key]
			if !ok {
				layers := append([]string(nil), w.TargetLayers...)
				sort.Strings(layers)
				acc = &weaponAccum{agg: &AggregatedWeapon{
					SafeName:     w.SafeName,
					TargetLayers: layers,
				}}
				weaponIndex[key] = acc
				weaponOrder = append(weaponOrder, key)
			}

			acc.agg.TotalCount += w.Count * r.quantity
			acc.agg.TotalDamage += w.Damage * qty
			acc.agg.TotalDPS += w.DPS * qty
			if w.SustainedDPS != nil {
				acc.sustainedSum += *w.SustainedDPS * qty
				if *w.SustainedDPS != w.DPS {
					acc.hasSustained = true
				}
			} else {
				acc.sustainedSum += w.DPS * qty
			}
			if w.MaxRange != nil {
				keepMax(&acc.agg.MaxRange, *w.MaxRange)
			}
			acc.agg.Sources = append(acc.agg.Sources, WeaponSource{
				UnitID:      u.Identifier,
				DisplayName: u.DisplayName,
				Quantity:    r.quantity,
			})
		}
	}

	stats.Weapons = make([]AggregatedWeapon, 0, len(weaponOrder))
	for _, key := range weaponOrder {
		acc := weaponIndex[key]
		if acc.hasSustained {
			s := acc.sustainedSum
			acc.agg.TotalSustainedDPS = &s
		}
		if acc.agg.MaxRange != nil {
			keepMax(&stats.MaxWeaponRange, *acc.agg.MaxRange)
		}
		stats.Weapons = append(stats.Weapons, *acc.agg)
	}
	sort.SliceStable(stats.Weapons, func(i, j int) bool {
		return stats.Weapons[i].TotalDPS > stats.Weapons[j].TotalDPS
	})

	stats.TargetLayers = sortedSet(layerSet)
	stats.Builds = sortedSet(buildSet)

	if stats.TotalBuildCost != 0 {
		dpc := stats.TotalDPS / stats.TotalBuildCost
		hpc := stats.TotalHealth / stats.TotalBuildCost
		stats.DPSPerCost = &dpc
		stats.HPPerCost = &hpc
	}

	return stats
}

// AggregatedWeaponPair is one aligned row of a group-vs-group weapon
// comparison. Exactly one of A or B may be nil, never both.
type AggregatedWeaponPair struct {
	A *AggregatedWeapon `json:"a,omitempty"`
	B *AggregatedWeapon `json:"b,omitempty"`
}

// MatchAggregatedWeapons reapplies the two-pass matcher (identity first,
// then layer overlap) to two already-consolidated weapon lists, so the
// group-level view pairs weapons exactly the way the single-unit view does.
func MatchAggregatedWeapons(listA, listB []AggregatedWeapon) []AggregatedWeaponPair {
	idx := matchTwoPass(len(listA), len(listB),
		func(i, j int) bool { return listA[i].SafeName == listB[j].SafeName },
		func(i, j int) int { return layerOverlap(listA[i].TargetLayers, listB[j].TargetLayers) },
	)

	pairs := make([]AggregatedWeaponPair, 0, len(listA)+len(listB))
	usedB := make([]bool, len(listB))
	for i := range listA {
		a := listA[i]
		pair := AggregatedWeaponPair{A: &a}
		if j := idx[i]; j >= 0 {
			b := listB[j]
			pair.B = &b
			usedB[j] = true
		}
		pairs = append(pairs, pair)
	}
	for j := range listB {
		if usedB[j] {
			continue
		}
		b := listB[j]
		pairs = append(pairs, AggregatedWeaponPair{B: &b})
	}
	return pairs
}

func keepMin(dst **float64, v float64) {
	if *dst == nil || v < **dst {
		val := v
		*dst = &val
	}
}

func keepMax(dst **float64, v float64) {
	if *dst == nil || v > **dst {
		val := v
		*dst = &val
	}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
