// Package config loads, normalizes, and validates Backlot's TOML
// configuration. Defaults cover every field so a bare config file with just
// the API key is enough to run a production.
package config
