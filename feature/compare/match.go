package compare

import (
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"
)

// WeaponPair is one aligned row of a side-by-side weapon comparison.
// Exactly one of A or B may be nil, never both.
type WeaponPair struct {
	A *models.Weapon `json:"a,omitempty"`
	B *models.Weapon `json:"b,omitempty"`
}

// MatchWeaponsByTargetLayers pairs weapons from two lists for side-by-side
// rendering. Callers pass lists already filtered of self-destruct and
// death-explosion weapons (models.Unit.CombatWeapons).
//
// Matching is greedy and order-dependent, in two passes:
//
//  1. Identity: each weapon in A takes the first unused weapon in B with the
//     same safe name. Identity wins over any layer heuristic, so a weapon
//     retained across factions always pairs with itself even when its target
//     layers have drifted.
//  2. Layer overlap: each still-unmatched weapon in A takes the unused B
//     weapon sharing the strictly highest positive number of target-layer
//     tags; ties go to the first candidate scanned. No positive overlap
//     means the weapon stays unmatched.
//
// Unconsumed B weapons are appended as (nil, b) rows in their original
// order. Every input weapon appears in exactly one output pair.
func MatchWeaponsByTargetLayers(listA, listB []models.Weapon) []WeaponPair {
	idx := matchTwoPass(len(listA), len(listB),
		func(i, j int) bool { return listA[i].SafeName == listB[j].SafeName },
		func(i, j int) int { return layerOverlap(listA[i].TargetLayers, listB[j].TargetLayers) },
	)

	pairs := make([]WeaponPair, 0, len(listA)+len(listB))
	usedB := make([]bool, len(listB))
	for i := range listA {
		a := listA[i]
		pair := WeaponPair{A: &a}
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
		pairs = append(pairs, WeaponPair{B: &b})
	}
	return pairs
}

// matchTwoPass runs the greedy identity-then-overlap algorithm over two
// lists of the given lengths and returns, for each index of list A, the
// matched index in list B or -1. Both weapon matchers share this so the
// single-unit and group-level views pair the same way.
func matchTwoPass(lenA, lenB int, identical func(i, j int) bool, overlap func(i, j int) int) []int {
	idx := make([]int, lenA)
	for i := range idx {
		idx[i] = -1
	}
	used := make([]bool, lenB)

	// Pass 1: identity by safe name.
	for i := 0; i < lenA; i++ {
		for j := 0; j < lenB; j++ {
			if used[j] || !identical(i, j) {
				continue
			}
			idx[i] = j
			used[j] = true
			break
		}
	}

	// Pass 2: best positive target-layer overlap, first scanned wins ties.
	for i := 0; i < lenA; i++ {
		if idx[i] >= 0 {
			continue
		}
		best, bestScore := -1, 0
		for j := 0; j < lenB; j++ {
			if used[j] {
				continue
			}
			if score := overlap(i, j); score > bestScore {
				best, bestScore = j, score
			}
		}
		if best >= 0 {
			idx[i] = best
			used[best] = true
		}
	}

	return idx
}

// layerOverlap counts target-layer tags present in both sets. An empty set
// on either side scores zero: an untagged weapon has no basis for a
// domain-similarity claim and can only match by identity.
func layerOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, l := range a {
		set[l] = struct{}{}
	}
	n := 0
	for _, l := range b {
		if _, ok := set[l]; ok {
			n++
			delete(set, l)
		}
	}
	return n
}
