package packager

import "errors"

var (
	// ErrManifest is returned when the version cannot be read from the manifest.
	ErrManifest = errors.New("manifest error")
	// ErrMissingArtifact is returned when the release build does not exist.
	ErrMissingArtifact = errors.New("release build not found")
	// ErrArchive is returned when staging, archiving or cleanup fails.
	ErrArchive = errors.New("archive error")
	// ErrVerify is returned when an archive does not hold the expected contents.
	ErrVerify = errors.New("archive verification failed")
)
