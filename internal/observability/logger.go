package observability

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// NewConsoleLogger builds the human-readable logger used on stderr. Color is
// only emitted when out is a terminal.
func NewConsoleLogger(out io.Writer, noColor bool, timestamp bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if f, ok := out.(*os.File); ok && !noColor {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			out = colorable.NewColorable(f)
		} else {
			noColor = true
		}
	} else if !ok {
		noColor = true
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
	if !timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return zerolog.New(output).With().Timestamp().Str("app", "cargo-pros").Logger()
}
