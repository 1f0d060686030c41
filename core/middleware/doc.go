// Package middleware groups the HTTP middleware used by the server.
//
// Subpackages:
//   - rayid: assigns a per-request ray id (UUID) used for log correlation.
//   - auth: API-key protection for the data and compare endpoints.
package middleware
