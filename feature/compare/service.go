package compare

import (
	"context"
	"fmt"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"

	"go.uber.org/zap"
)

// UnitRef addresses one unit for comparison.
type UnitRef struct {
	FactionID string `json:"faction_id"`
	UnitID    string `json:"unit_id"`
	Version   string `json:"version,omitempty"`
}

// UnitComparison is the side-by-side view of two units.
type UnitComparison struct {
	A       *models.Unit `json:"a"`
	B       *models.Unit `json:"b"`
	Weapons []WeaponPair `json:"weapons"`
}

// CommanderReport is a faction's deduplicated commander listing.
type CommanderReport struct {
	Commanders    []CommanderGroup        `json:"commanders"`
	NonCommanders []models.UnitIndexEntry `json:"non_commanders"`
	// TotalCommanders counts commanders including hidden variants;
	// HiddenVariants counts what is collapsed behind representatives.
	TotalCommanders int `json:"total_commanders"`
	HiddenVariants  int `json:"hidden_variants"`
}

// GroupComparison is the side-by-side view of two compositions. Either
// aggregate may be null when its member set resolves to nothing.
type GroupComparison struct {
	A       *AggregatedGroupStats  `json:"a"`
	B       *AggregatedGroupStats  `json:"b"`
	Weapons []AggregatedWeaponPair `json:"weapons"`
}

// Service runs comparisons over units read through the faction cache.
type Service struct {
	cache  *faction.Cache
	logger *zap.Logger
}

// NewService creates a new comparison service.
func NewService(cache *faction.Cache, logger *zap.Logger) *Service {
	return &Service{cache: cache, logger: logger}
}

// CompareUnits loads both units and aligns their combat weapons.
func (s *Service) CompareUnits(ctx context.Context, refA, refB UnitRef) (*UnitComparison, error) {
	unitA, err := s.cache.LoadUnit(ctx, refA.FactionID, refA.UnitID, refA.Version)
	if err != nil {
		return nil, err
	}
	unitB, err := s.cache.LoadUnit(ctx, refB.FactionID, refB.UnitID, refB.Version)
	if err != nil {
		return nil, err
	}

	return &UnitComparison{
		A:       unitA,
		B:       unitB,
		Weapons: MatchWeaponsByTargetLayers(unitA.CombatWeapons(), unitB.CombatWeapons()),
	}, nil
}

// CommanderGroups loads a faction index and collapses its commander
// variants.
func (s *Service) CommanderGroups(ctx context.Context, factionID, version string) (*CommanderReport, error) {
	index, err := s.cache.LoadFaction(ctx, factionID, version)
	if err != nil {
		return nil, err
	}

	groups := GroupVariants(index)
	return &CommanderReport{
		Commanders:      groups.Commanders,
		NonCommanders:   groups.NonCommanders,
		TotalCommanders: TotalCommanders(groups.Commanders),
		HiddenVariants:  HiddenVariants(groups.Commanders),
	}, nil
}

// CompareGroups aggregates both compositions and aligns their consolidated
// weapon lists. Factions referenced by members are loaded first; members
// that still do not resolve are dropped by the aggregator, and a side
// resolving to nothing aggregates to null.
func (s *Service) CompareGroups(ctx context.Context, membersA, membersB []GroupMember) (*GroupComparison, error) {
	s.preloadFactions(ctx, membersA)
	s.preloadFactions(ctx, membersB)

	lookup := UnitLookup(func(factionID, unitID string) *models.Unit {
		return s.cache.GetUnit(factionID, unitID, "")
	})

	statsA := AggregateGroupStats(membersA, lookup)
	statsB := AggregateGroupStats(membersB, lookup)

	var weaponsA, weaponsB []AggregatedWeapon
	if statsA != nil {
		weaponsA = statsA.Weapons
	}
	if statsB != nil {
		weaponsB = statsB.Weapons
	}

	return &GroupComparison{
		A:       statsA,
		B:       statsB,
		Weapons: MatchAggregatedWeapons(weaponsA, weaponsB),
	}, nil
}

// preloadFactions loads each distinct faction referenced by the members.
// Load failures only cost those members their resolution; the comparison
// itself proceeds.
func (s *Service) preloadFactions(ctx context.Context, members []GroupMember) {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m.FactionID]; ok {
			continue
		}
		seen[m.FactionID] = struct{}{}
		if _, err := s.cache.LoadFaction(ctx, m.FactionID, ""); err != nil {
			s.logger.Warn("Group member faction load failed",
				zap.String("faction_id", m.FactionID), zap.Error(err))
		}
	}
}

// ParseUnitRef parses the "faction/unit" query form used by the compare
// endpoints.
func ParseUnitRef(raw string) (UnitRef, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '/' {
			if i == 0 || i == len(raw)-1 {
				break
			}
			return UnitRef{FactionID: raw[:i], UnitID: raw[i+1:]}, nil
		}
	}
	return UnitRef{}, fmt.Errorf("invalid unit reference %q, want faction/unit", raw)
}
