// Package config provides configuration management for pa-pedia.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file, with defaults bound from struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL connection details for the local-faction store
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Data: object layout of the faction catalog inside the bucket
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
