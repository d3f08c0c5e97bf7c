// Package config loads, normalizes, and validates docverify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DOCVERIFY_API_URL and DOCVERIFY_TOKEN. The Config type centralizes every knob
// the CLI needs: the processing service endpoint, poll cadence, upload limits,
// local state and download directories, logging, and push notifications.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
