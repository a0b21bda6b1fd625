package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar reports fetch progress on an interactive terminal. A nil *Bar is valid
// and ignores every call, so callers do not need to check whether progress
// output is enabled.
type Bar struct {
	bar *progressbar.ProgressBar
}

func New(w io.Writer, total int, description string) *Bar {
	return &Bar{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (b *Bar) Add(n int) {
	if b == nil {
		return
	}
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}
