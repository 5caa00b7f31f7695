// Package config loads process configuration for trendline from an optional
// YAML file, a .env file and environment variables.
package config
