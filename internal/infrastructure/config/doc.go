// Package config handles loading and validating SmartConnect Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SMARTCONNECT_* environment variables
//   - Validation of required fields (all problems reported at once)
//
// Secrets (JWT secret, MQTT and Redis passwords, InfluxDB token) should be
// supplied through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
