package compare

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"
)

// absent marks an optional field with no value in a stats signature, so
// "not applicable" never collides with "present with value 0".
const absent = "-"

// CommanderGroup is one set of gameplay-identical commanders. A group with
// zero variants is a unique commander and has the same shape as any other
// group, so downstream rendering stays uniform.
type CommanderGroup struct {
	Representative models.UnitIndexEntry   `json:"representative"`
	Variants       []models.UnitIndexEntry `json:"variants"`
	// StatsHash is the shared signature, used as a stable toggle key by the
	// UI. It is an equality key, not a security hash.
	StatsHash string `json:"stats_hash"`
}

// VariantGroups is the result of partitioning a unit list into deduplicated
// commanders and untouched non-commanders.
type VariantGroups struct {
	Commanders    []CommanderGroup        `json:"commanders"`
	NonCommanders []models.UnitIndexEntry `json:"non_commanders"`
}

// IsCommander reports whether the entry's type tags contain Commander.
func IsCommander(e models.UnitIndexEntry) bool {
	return e.HasUnitType(models.UnitTypeCommander)
}

// ComputeStatsHash builds an opaque signature over every gameplay-relevant
// field of the unit. Cosmetic fields (display name, description, image,
// identifier, tier label) are deliberately excluded: two units differing
// only in name and art must hash identically. Stable for equal inputs.
func ComputeStatsHash(u models.Unit) string {
	h := fnv.New64a()
	h.Write([]byte(statsSignature(u)))
	return strconv.FormatUint(h.Sum64(), 16)
}

// statsSignature concatenates the gameplay fields in fixed order.
func statsSignature(u models.Unit) string {
	var parts []string

	c := u.Specs.Combat
	parts = append(parts,
		num(c.Health),
		opt(c.DPS),
		opt(c.SalvoDamage),
		weaponsSignature(c.Weapons),
	)

	e := u.Specs.Economy
	parts = append(parts,
		num(e.BuildCost),
		opt(e.BuildRate),
		opt(e.ToolEnergyConsumption),
		resource(e.Production),
		resource(e.Consumption),
		resource(e.Storage),
		opt(e.BuildRange),
	)

	if m := u.Specs.Mobility; m != nil {
		parts = append(parts, num(m.MoveSpeed), num(m.TurnSpeed), num(m.Acceleration), num(m.Brake))
	} else {
		parts = append(parts, absent, absent, absent, absent)
	}

	if r := u.Specs.Recon; r != nil {
		parts = append(parts, num(r.Vision), num(r.UnderwaterVision), num(r.Radar), num(r.Sonar), num(r.OrbitalVision), num(r.OrbitalRadar))
	} else {
		parts = append(parts, absent, absent, absent, absent, absent, absent)
	}

	if s := u.Specs.Special; s != nil {
		parts = append(parts, boolSig(s.Amphibious), boolSig(s.Hover), strOrAbsent(s.SpawnOnDeath))
	} else {
		parts = append(parts, absent, absent, absent)
	}

	return strings.Join(parts, "|")
}

// weaponsSignature joins per-weapon signatures sorted by safe name, so
// physically identical weapon sets hash the same regardless of declaration
// order.
func weaponsSignature(weapons []models.Weapon) string {
	sigs := make([]string, 0, len(weapons))
	for _, w := range weapons {
		sigs = append(sigs, strings.Join([]string{
			w.SafeName,
			strconv.Itoa(w.Count),
			num(w.Damage),
			num(w.DPS),
			num(w.RateOfFire),
			opt(w.MaxRange),
			opt(w.SplashDamage),
			opt(w.SplashRadius),
			boolSig(w.SelfDestruct),
			boolSig(w.DeathExplosion),
		}, ","))
	}
	sort.Strings(sigs)
	return strings.Join(sigs, ";")
}

// GroupVariants partitions entries into commanders and non-commanders,
// then groups the commanders by exact stats-hash equality. Within a group,
// members are sorted by display name; the alphabetically first becomes the
// representative and the rest become its variants. Groups are sorted by
// representative display name for stable rendering.
func GroupVariants(entries []models.UnitIndexEntry) VariantGroups {
	out := VariantGroups{NonCommanders: []models.UnitIndexEntry{}}

	byHash := make(map[string][]models.UnitIndexEntry)
	var order []string
	for _, e := range entries {
		if !IsCommander(e) {
			out.NonCommanders = append(out.NonCommanders, e)
			continue
		}
		hash := ComputeStatsHash(e.Unit)
		if _, ok := byHash[hash]; !ok {
			order = append(order, hash)
		}
		byHash[hash] = append(byHash[hash], e)
	}

	groups := make([]CommanderGroup, 0, len(order))
	for _, hash := range order {
		members := byHash[hash]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].DisplayName < members[j].DisplayName
		})
		groups = append(groups, CommanderGroup{
			Representative: members[0],
			Variants:       members[1:],
			StatsHash:      hash,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Representative.DisplayName < groups[j].Representative.DisplayName
	})
	out.Commanders = groups

	return out
}

// TotalCommanders returns the commander count across groups, variants
// included.
func TotalCommanders(groups []CommanderGroup) int {
	n := 0
	for _, g := range groups {
		n += 1 + len(g.Variants)
	}
	return n
}

// HiddenVariants returns how many commanders are collapsed behind their
// representatives. Used for UI messaging only.
func HiddenVariants(groups []CommanderGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Variants)
	}
	return n
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func opt(f *float64) string {
	if f == nil {
		return absent
	}
	return num(*f)
}

func resource(r *models.ResourceAmount) string {
	if r == nil {
		return absent
	}
	return num(r.Metal) + "/" + num(r.Energy)
}

func boolSig(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func strOrAbsent(s string) string {
	if s == "" {
		return absent
	}
	return s
}
