package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUnit() Unit {
	return Unit{
		Identifier:  "tank_light",
		DisplayName: "Ant",
		UnitTypes:   []string{"Land", "Tank"},
		Specs: Specs{
			Combat:  Combat{Health: 50, Weapons: []Weapon{{SafeName: "light_laser", Count: 1, Damage: 10, DPS: 20, RateOfFire: 2}}},
			Economy: Economy{BuildCost: 75},
		},
	}
}

func TestUnit_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Unit)
		want   string
	}{
		{"Valid", func(u *Unit) {}, ""},
		{"MissingIdentifier", func(u *Unit) { u.Identifier = "" }, "missing identifier"},
		{"MissingDisplayName", func(u *Unit) { u.DisplayName = "" }, "missing display name"},
		{"MissingHealth", func(u *Unit) { u.Specs.Combat.Health = 0 }, "missing combat.health"},
		{"NegativeCost", func(u *Unit) { u.Specs.Economy.BuildCost = -1 }, "negative economy.build_cost"},
		{"WeaponNoSafeName", func(u *Unit) { u.Specs.Combat.Weapons[0].SafeName = "" }, "weapon missing safe_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUnit()
			tt.mutate(&u)
			assert.Equal(t, tt.want, u.Validate())
		})
	}
}

func TestUnitIndexEntry_HasUnitType(t *testing.T) {
	e := UnitIndexEntry{UnitTypes: []string{"Land", "Bot", UnitTypeCommander}}
	assert.True(t, e.HasUnitType(UnitTypeCommander))
	assert.True(t, e.HasUnitType("Bot"))
	assert.False(t, e.HasUnitType("Air"))
}

func TestUnit_CombatWeapons(t *testing.T) {
	u := validUnit()
	u.Specs.Combat.Weapons = append(u.Specs.Combat.Weapons,
		Weapon{SafeName: "suicide_charge", SelfDestruct: true},
		Weapon{SafeName: "death_blast", DeathExplosion: true},
	)

	combat := u.CombatWeapons()
	assert.Len(t, combat, 1)
	assert.Equal(t, "light_laser", combat[0].SafeName)
}

func TestWeapon_UnmarshalNormalizesLooseScalars(t *testing.T) {
	loose := `{
		"safe_name": "tank_cannon",
		"count": "2",
		"rate_of_fire": "0.5",
		"damage": "150",
		"dps": 75,
		"max_range": "100",
		"self_destruct": 1,
		"target_layers": ["land", "surface"]
	}`

	var w Weapon
	require.NoError(t, json.Unmarshal([]byte(loose), &w))

	assert.Equal(t, "tank_cannon", w.SafeName)
	assert.Equal(t, 2, w.Count)
	assert.Equal(t, 0.5, w.RateOfFire)
	assert.Equal(t, 150.0, w.Damage)
	assert.Equal(t, 75.0, w.DPS)
	require.NotNil(t, w.MaxRange)
	assert.Equal(t, 100.0, *w.MaxRange)
	assert.True(t, w.SelfDestruct)
	assert.False(t, w.DeathExplosion)
	assert.Nil(t, w.SustainedDPS)
	assert.Equal(t, []string{"land", "surface"}, w.TargetLayers)
}

func TestWeapon_UnmarshalKeepsAbsentDistinctFromZero(t *testing.T) {
	var present, absent Weapon
	require.NoError(t, json.Unmarshal([]byte(`{"safe_name":"w","sustained_dps":0}`), &present))
	require.NoError(t, json.Unmarshal([]byte(`{"safe_name":"w"}`), &absent))

	require.NotNil(t, present.SustainedDPS)
	assert.Zero(t, *present.SustainedDPS)
	assert.Nil(t, absent.SustainedDPS)
}

func TestWeapon_UnmarshalRoundTripsCanonicalForm(t *testing.T) {
	orig := Weapon{
		SafeName:     "uber_cannon",
		DisplayName:  "Uber Cannon",
		Count:        1,
		RateOfFire:   0.25,
		Damage:       400,
		DPS:          100,
		SustainedDPS: func() *float64 { f := 80.0; return &f }(),
		TargetLayers: []string{LayerLand, LayerAir},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	var got Weapon
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, orig, got)
}
