// Package config defines the immutable descriptor of a packaging run.
//
// The Descriptor carries the release version together with the fixed
// platform, architecture and build profile, and derives the archive and
// binary paths from them.
package config
