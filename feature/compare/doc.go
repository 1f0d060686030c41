// Package compare implements the analysis side of the service: aligning
// two units' weapons by target layers, collapsing stat-identical commander
// variants behind a representative, and aggregating unit compositions into
// comparable group stats.
//
// All comparisons read units through the faction cache; this package never
// touches storage directly.
package compare
