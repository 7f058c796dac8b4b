package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Viper keys honored by Init. The root command binds its persistent
// flags to these.
const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

// Options override what Init would otherwise read from viper.
type Options struct {
	Level   string
	Format  string
	NoColor bool
	Writer  io.Writer
}

// InitDefault sets up a plain console logger before flags are parsed,
// so failures during startup still log readably.
func InitDefault() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// Init configures the global logger. A nil opts reads the resolved
// viper keys, which is what commands want after flag parsing.
func Init(opts *Options) {
	if opts == nil {
		opts = &Options{
			Level:   viper.GetString(LevelKey),
			Format:  viper.GetString(FormatKey),
			NoColor: viper.GetBool(NoColorKey),
		}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if opts.Format == "json" {
		log.Logger = zerolog.New(opts.Writer).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        opts.Writer,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	})
}
