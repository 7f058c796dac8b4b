package audit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
)

// FileConfig is the inline config of the "file" sink.
type FileConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// SQLiteConfig is the inline config of the "sqlite" sink.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// NewFromConfig builds the audit trail declared in config. Sink order
// matters: the first sink is the sink of record.
//
// The returned Searcher is the first queryable sink, or nil when none
// is configured.
func NewFromConfig(cfg config.AuditConfig, clock core.Clock, logger zerolog.Logger) (*Trail, Searcher, error) {
	var sinks []Appender
	var searcher Searcher

	for _, sc := range cfg.Sinks {
		sink, err := buildSink(sc, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		if searcher == nil {
			if s, ok := sink.(Searcher); ok {
				searcher = s
			}
		}
	}

	trail, err := NewTrail([]byte(cfg.Key), clock, sinks...)
	if err != nil {
		return nil, nil, err
	}
	return trail, searcher, nil
}

func buildSink(cfg config.AuditSinkConfig, logger zerolog.Logger) (Appender, error) {
	switch cfg.Type {
	case "file":
		var conf FileConfig
		if err := decodeSinkConfig(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding config for file sink: %w", err)
		}
		if conf.Path == "" {
			return nil, fmt.Errorf("file sink requires a path")
		}
		return NewFileAppender(conf.Path, conf.Format)
	case "sqlite":
		var conf SQLiteConfig
		if err := decodeSinkConfig(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding config for sqlite sink: %w", err)
		}
		if conf.Path == "" {
			return nil, fmt.Errorf("sqlite sink requires a path")
		}
		return NewSQLiteAppender(conf.Path)
	case "console":
		return NewConsoleAppender(logger), nil
	case "memory":
		return NewMemoryAppender(), nil
	case "discard":
		return DiscardAppender{}, nil
	default:
		return nil, fmt.Errorf("unknown audit sink type %q", cfg.Type)
	}
}

func decodeSinkConfig(raw map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
