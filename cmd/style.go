package cmd

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.New(color.FgGreen).Sprint("✔")
	redCross   = color.New(color.FgRed).Sprint("✖")
)

// BeQuietError tells Execute that the failure was already reported to
// the user and must not be logged again.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf(greenCheck+" "+format, args...)
}

// logError reports err to the user and returns a BeQuietError so the
// caller can bubble it up without a second report.
func logError(err error, correlation string, msg string) error {
	evt := log.Error()
	if correlation != "" {
		evt = evt.Str("correlation_id", correlation)
	}
	evt.Msgf("%s %s", redCross, msg)
	log.Error().Msgf("error: %v", err)
	return BeQuietError{}
}
