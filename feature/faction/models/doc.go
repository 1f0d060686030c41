// Package models defines the faction/unit/weapon record shapes shared by the
// faction cache and the comparison features.
//
// Units, weapons, and index entries are immutable once loaded: they are
// created when a faction index resolves and replaced wholesale when a local
// faction is re-uploaded. Combat and economy stat blocks are always present;
// the other blocks are optional and their absence means "not applicable",
// never zero.
package models
