// Package config loads, normalizes, and validates hocg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), resolves database and image paths relative to the assets
// directory, reads TOML files, and honours environment fallbacks such as
// HOCG_ASSETS_DIR and HOLODELTA_DB_PATH.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
