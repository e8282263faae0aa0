package packager

import (
	"fmt"
	"io"

	"github.com/oshokin/kamiya-packager/internal/config"
)

const (
	// MissingArtifactMessage is printed when the release build is absent.
	MissingArtifactMessage = "ERROR: run `make release` first."
	// DoneMessage is printed after a successful run.
	DoneMessage = "INFO: Done"
)

// StartMessage returns the line announcing the package being made.
func StartMessage(desc *config.Descriptor) string {
	return "INFO: making package `" + desc.PackageName() + "`"
}

// Report writes message as one line to w.
func Report(w io.Writer, message string) {
	_, _ = fmt.Fprintln(w, message)
}
