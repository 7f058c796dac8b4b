package token

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
)

// NewFromConfig builds the minter selected in config. An empty type
// means the random minter.
func NewFromConfig(cfg config.TokenConfig, clock core.Clock) (core.TokenMinter, error) {
	switch cfg.Type {
	case "", RandomType:
		var conf RandomConfig
		if err := decodeConfig(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding config for random minter: %w", err)
		}
		return NewRandomMinter(conf.TTL, clock), nil
	case SignedType:
		var conf SignedConfig
		if err := decodeConfig(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding config for signed minter: %w", err)
		}
		return NewSignedMinter(conf, clock)
	default:
		return nil, fmt.Errorf("unknown token minter type %q", cfg.Type)
	}
}

func decodeConfig(raw map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
