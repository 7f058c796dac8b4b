package factors

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
)

// BiometricConfig is the inline config of the "biometric" factor.
type BiometricConfig struct {
	// Provider selects the capture backend: "keyword" (default) or
	// "static".
	Provider string `mapstructure:"provider"`

	// Keyword the caller has to type for the keyword provider.
	// Defaults to "scan".
	Keyword string `mapstructure:"keyword"`

	// Delay simulates sensor processing time.
	Delay time.Duration `mapstructure:"delay"`

	// Timeout is the capture window. Defaults to 30s.
	Timeout time.Duration `mapstructure:"timeout"`

	// Reading is the fixed verdict of the static provider.
	Reading string `mapstructure:"reading"`
}

// OTPConfig is the inline config of the "otp" factor.
type OTPConfig struct {
	// Digits is the code length. Defaults to 6.
	Digits int `mapstructure:"digits"`

	// TTL is how long a delivered code stays valid. Defaults to 90s.
	TTL time.Duration `mapstructure:"ttl"`
}

// Deps carries the shared components factors hook into.
type Deps struct {
	Store   core.CredentialStore
	Limiter core.AttemptLimiter
	Clock   core.Clock
	Logger  zerolog.Logger
}

// BuildChain builds the authentication chain declared in config, in
// declaration order. An empty declaration means the default chain of
// secret, biometric and delivered one-time code.
func BuildChain(cfgs []config.FactorConfig, deps Deps) ([]core.Factor, error) {
	if len(cfgs) == 0 {
		cfgs = config.DefaultFactors()
	}

	chain := make([]core.Factor, 0, len(cfgs))
	for _, cfg := range cfgs {
		switch cfg.Type {
		case TypeSecret:
			chain = append(chain, NewSecretFactor(cfg.Name, deps.Store, deps.Limiter))
		case TypeBiometric:
			var conf BiometricConfig
			if err := decodeFactorConfig(cfg.Config, &conf); err != nil {
				return nil, fmt.Errorf("decoding config for biometric factor '%s': %w", cfg.Name, err)
			}
			provider, err := buildBiometricProvider(conf)
			if err != nil {
				return nil, fmt.Errorf("building biometric factor '%s': %w", cfg.Name, err)
			}
			chain = append(chain, NewBiometricFactor(cfg.Name, provider))
		case TypeOTP:
			var conf OTPConfig
			if err := decodeFactorConfig(cfg.Config, &conf); err != nil {
				return nil, fmt.Errorf("decoding config for otp factor '%s': %w", cfg.Name, err)
			}
			deliverer := NewLogDeliverer(deps.Logger)
			chain = append(chain, NewOTPFactor(cfg.Name, deliverer, conf.Digits, conf.TTL, deps.Clock))
		case TypeTOTP:
			var conf TOTPConfig
			if err := decodeFactorConfig(cfg.Config, &conf); err != nil {
				return nil, fmt.Errorf("decoding config for totp factor '%s': %w", cfg.Name, err)
			}
			factor, err := NewTOTPFactor(cfg.Name, conf, deps.Clock)
			if err != nil {
				return nil, err
			}
			chain = append(chain, factor)
		default:
			return nil, fmt.Errorf("unknown factor type %q for factor %q", cfg.Type, cfg.Name)
		}
	}
	return chain, nil
}

func buildBiometricProvider(conf BiometricConfig) (BiometricProvider, error) {
	switch conf.Provider {
	case "", "keyword":
		return NewKeywordProvider(conf.Keyword, conf.Delay, conf.Timeout), nil
	case "static":
		return NewStaticProvider(Reading(conf.Reading))
	default:
		return nil, fmt.Errorf("unknown biometric provider %q", conf.Provider)
	}
}

func decodeFactorConfig(raw map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
