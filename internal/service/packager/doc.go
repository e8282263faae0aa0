// Package packager turns a release build of kamiya into a versioned
// kamiya-{version}-linux-x86_64.tar.xz archive.
//
// It reads the version from the manifest, checks that the release binary
// exists, stages a copy next to the archive, archives it and removes the
// staged copy again. The fixed report lines written to stdout are part of the
// interface: release pipelines match on them.
package packager
