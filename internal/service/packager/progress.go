package packager

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar returns a byte-counting bar rendering to w.
func newProgressBar(w io.Writer, size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("compressing "+name),
	)
}
