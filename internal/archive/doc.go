// Package archive stages files and writes or reads xz-compressed tar archives.
//
// Archives are produced natively with archive/tar on top of an xz stream, so
// no external tar binary is required. Partially written archives and staged
// copies are removed on failure.
package archive
