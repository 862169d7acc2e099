package cli

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/tacogips/nodestage/internal/stage/installer"
)

var noProgress bool

// progressFunc returns a download observer drawing progress bars on stderr,
// or nil when bars are disabled or stderr is not a terminal.
func progressFunc(enabled bool) installer.ProgressFunc {
	if !enabled || noProgress || globalQuiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return func(name string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionEnableColorCodes(!globalNoColor),
		)
	}
}
