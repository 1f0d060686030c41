// Package utils provides small type-conversion helpers for normalizing the
// loosely typed JSON found in uploaded faction bundles.
package utils
