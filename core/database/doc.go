// Package database provides the MySQL connection used by the local-faction
// persistence store.
//
// The database is an optional dependency. When it is unavailable the server
// runs in read-only mode over the bundled faction catalog: uploads and
// deletions of local factions are rejected, browsing and comparison work
// normally.
package database
