package compare_test

import (
	"testing"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/compare"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func antUnit() *models.Unit {
	return &models.Unit{
		Identifier:  "ant",
		DisplayName: "Ant",
		UnitTypes:   []string{"Tank", "Land"},
		Specs: models.Specs{
			Combat: models.Combat{
				Health: 50,
				DPS:    fptr(20),
				Weapons: []models.Weapon{
					{SafeName: "light_laser", Count: 1, Damage: 10, DPS: 20, RateOfFire: 2, MaxRange: fptr(100), TargetLayers: []string{models.LayerLand}},
				},
			},
			Economy:  models.Economy{BuildCost: 75},
			Mobility: &models.Mobility{MoveSpeed: 15, TurnSpeed: 180, Acceleration: 75, Brake: 75},
			Recon:    &models.Recon{Vision: 100},
		},
	}
}

func doxUnit() *models.Unit {
	return &models.Unit{
		Identifier:  "dox",
		DisplayName: "Dox",
		UnitTypes:   []string{"Bot", "Land"},
		Specs: models.Specs{
			Combat: models.Combat{
				Health: 40,
				DPS:    fptr(15),
				Weapons: []models.Weapon{
					{SafeName: "light_laser", Count: 1, Damage: 7.5, DPS: 15, RateOfFire: 2, MaxRange: fptr(80), TargetLayers: []string{models.LayerLand}},
				},
			},
			Economy:  models.Economy{BuildCost: 60},
			Mobility: &models.Mobility{MoveSpeed: 12, TurnSpeed: 270, Acceleration: 90, Brake: 90},
			Recon:    &models.Recon{Vision: 110},
			Special:  &models.Special{Amphibious: true},
		},
	}
}

func lookupFor(units map[string]*models.Unit) compare.UnitLookup {
	return func(factionID, unitID string) *models.Unit {
		return units[unitID]
	}
}

func TestAggregateGroupStatsMixedArmy(t *testing.T) {
	lookup := lookupFor(map[string]*models.Unit{"ant": antUnit(), "dox": doxUnit()})
	members := []compare.GroupMember{
		{FactionID: "mla", UnitID: "ant", Quantity: 10},
		{FactionID: "mla", UnitID: "dox", Quantity: 5},
	}

	stats := compare.AggregateGroupStats(members, lookup)
	require.NotNil(t, stats)

	assert.Equal(t, 15, stats.UnitCount)
	assert.Equal(t, 2, stats.DistinctUnitTypes)
	assert.InDelta(t, 700, stats.TotalHealth, 1e-9)     // 10*50 + 5*40
	assert.InDelta(t, 1050, stats.TotalBuildCost, 1e-9) // 10*75 + 5*60
	assert.InDelta(t, 275, stats.TotalDPS, 1e-9)        // 10*20 + 5*15

	// The group moves at the Dox's pace regardless of quantities.
	require.NotNil(t, stats.MinMoveSpeed)
	assert.InDelta(t, 12, *stats.MinMoveSpeed, 1e-9)

	// Sensors take the best across types.
	require.NotNil(t, stats.MaxVision)
	assert.InDelta(t, 110, *stats.MaxVision, 1e-9)

	// Some members are amphibious, not all.
	assert.True(t, stats.Amphibious.Any)
	assert.False(t, stats.Amphibious.All)

	// Both units carry the same weapon over the same layers: one line.
	require.Len(t, stats.Weapons, 1)
	w := stats.Weapons[0]
	assert.Equal(t, "light_laser", w.SafeName)
	assert.Equal(t, 15, w.TotalCount)
	assert.InDelta(t, 275, w.TotalDPS, 1e-9)
	require.NotNil(t, w.MaxRange)
	assert.InDelta(t, 100, *w.MaxRange, 1e-9)
	assert.Len(t, w.Sources, 2)

	require.NotNil(t, stats.MaxWeaponRange)
	assert.InDelta(t, 100, *stats.MaxWeaponRange, 1e-9)

	assert.Equal(t, []string{models.LayerLand}, stats.TargetLayers)

	require.NotNil(t, stats.DPSPerCost)
	assert.InDelta(t, 275.0/1050.0, *stats.DPSPerCost, 1e-9)
	require.NotNil(t, stats.HPPerCost)
	assert.InDelta(t, 700.0/1050.0, *stats.HPPerCost, 1e-9)
}

func TestAggregateGroupStatsScalesLinearly(t *testing.T) {
	lookup := lookupFor(map[string]*models.Unit{"ant": antUnit()})

	one := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 1}}, lookup)
	ten := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 10}}, lookup)
	require.NotNil(t, one)
	require.NotNil(t, ten)

	assert.InDelta(t, one.TotalHealth*10, ten.TotalHealth, 1e-9)
	assert.InDelta(t, one.TotalDPS*10, ten.TotalDPS, 1e-9)
	assert.InDelta(t, one.TotalBuildCost*10, ten.TotalBuildCost, 1e-9)

	// Ratios stay fixed under scaling.
	assert.InDelta(t, *one.DPSPerCost, *ten.DPSPerCost, 1e-9)

	// Minimums do not scale.
	assert.InDelta(t, *one.MinMoveSpeed, *ten.MinMoveSpeed, 1e-9)
}

func TestAggregateGroupStatsDropsUnresolvedMembers(t *testing.T) {
	lookup := lookupFor(map[string]*models.Unit{"ant": antUnit()})
	members := []compare.GroupMember{
		{UnitID: "ant", Quantity: 2},
		{UnitID: "ghost", Quantity: 50},
	}

	stats := compare.AggregateGroupStats(members, lookup)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.UnitCount)
	assert.Equal(t, 1, stats.DistinctUnitTypes)
}

func TestAggregateGroupStatsNilWhenNothingResolves(t *testing.T) {
	lookup := lookupFor(nil)
	stats := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ghost"}}, lookup)
	assert.Nil(t, stats)

	stats = compare.AggregateGroupStats(nil, lookup)
	assert.Nil(t, stats)
}

func TestAggregateGroupStatsCoercesQuantity(t *testing.T) {
	lookup := lookupFor(map[string]*models.Unit{"ant": antUnit()})

	stats := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 0}}, lookup)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.UnitCount)
	assert.InDelta(t, 50, stats.TotalHealth, 1e-9)
}

func TestAggregateGroupStatsSustainedDPSGate(t *testing.T) {
	// No contributing weapon reports a sustained rate distinct from burst:
	// the sustained column stays absent.
	lookup := lookupFor(map[string]*models.Unit{"ant": antUnit()})
	stats := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 3}}, lookup)
	require.NotNil(t, stats)
	require.Len(t, stats.Weapons, 1)
	assert.Nil(t, stats.Weapons[0].TotalSustainedDPS)

	// One unit with a real sustained rate switches the whole line on, and
	// units without one contribute their burst rate to the sum.
	burster := antUnit()
	burster.Identifier = "burster"
	burster.Specs.Combat.Weapons[0].SustainedDPS = fptr(5)

	lookup = lookupFor(map[string]*models.Unit{"ant": antUnit(), "burster": burster})
	stats = compare.AggregateGroupStats([]compare.GroupMember{
		{UnitID: "ant", Quantity: 2},
		{UnitID: "burster", Quantity: 1},
	}, lookup)
	require.NotNil(t, stats)
	require.Len(t, stats.Weapons, 1)
	require.NotNil(t, stats.Weapons[0].TotalSustainedDPS)
	assert.InDelta(t, 2*20+5, *stats.Weapons[0].TotalSustainedDPS, 1e-9)
}

func TestAggregateGroupStatsZeroCostHasNoRatios(t *testing.T) {
	free := antUnit()
	free.Specs.Economy.BuildCost = 0

	lookup := lookupFor(map[string]*models.Unit{"ant": free})
	stats := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 5}}, lookup)
	require.NotNil(t, stats)
	assert.Nil(t, stats.DPSPerCost)
	assert.Nil(t, stats.HPPerCost)
}

func TestAggregateGroupStatsExcludesDeathWeapons(t *testing.T) {
	exploder := antUnit()
	exploder.Specs.Combat.Weapons = append(exploder.Specs.Combat.Weapons, models.Weapon{
		SafeName: "death_explosion", Count: 1, Damage: 500, DPS: 500, DeathExplosion: true,
		TargetLayers: []string{models.LayerLand},
	})

	lookup := lookupFor(map[string]*models.Unit{"ant": exploder})
	stats := compare.AggregateGroupStats([]compare.GroupMember{{UnitID: "ant", Quantity: 1}}, lookup)
	require.NotNil(t, stats)
	require.Len(t, stats.Weapons, 1)
	assert.Equal(t, "light_laser", stats.Weapons[0].SafeName)
}

func TestWeaponGroupKeySeparatesLayerVariants(t *testing.T) {
	land := models.Weapon{SafeName: "laser", TargetLayers: []string{models.LayerLand}}
	air := models.Weapon{SafeName: "laser", TargetLayers: []string{models.LayerAir}}
	shuffled := models.Weapon{SafeName: "laser", TargetLayers: []string{models.LayerLand, models.LayerAir}}
	sorted := models.Weapon{SafeName: "laser", TargetLayers: []string{models.LayerAir, models.LayerLand}}

	assert.NotEqual(t, compare.WeaponGroupKey(land), compare.WeaponGroupKey(air))
	assert.Equal(t, compare.WeaponGroupKey(shuffled), compare.WeaponGroupKey(sorted))
}

func TestMatchAggregatedWeaponsPairsLikeUnitView(t *testing.T) {
	listA := []compare.AggregatedWeapon{
		{SafeName: "laser", TargetLayers: []string{models.LayerLand}, TotalDPS: 100},
	}
	listB := []compare.AggregatedWeapon{
		{SafeName: "flak", TargetLayers: []string{models.LayerAir}, TotalDPS: 50},
		{SafeName: "cannon", TargetLayers: []string{models.LayerLand}, TotalDPS: 80},
	}

	pairs := compare.MatchAggregatedWeapons(listA, listB)
	require.Len(t, pairs, 2)
	require.NotNil(t, pairs[0].B)
	assert.Equal(t, "cannon", pairs[0].B.SafeName)
	assert.Nil(t, pairs[1].A)
	assert.Equal(t, "flak", pairs[1].B.SafeName)
}
