// Package server holds the HTTP server configuration.
//
// The actual Fiber application is constructed in cmd/start.go; this package
// only defines the configuration section (port, API key) consumed there and
// by the auth middleware.
package server
