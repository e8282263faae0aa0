// Package manifest reads the release version from a Cargo-style TOML manifest.
package manifest
