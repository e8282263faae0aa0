// Package integration holds end-to-end tests running the packager in a
// temporary project directory.
package integration
