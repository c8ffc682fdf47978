package optimizer

import (
	"github.com/rs/zerolog"
)

const (
	// DefaultPromotionThreshold is the number of interpreted uses after
	// which a site is compiled.
	DefaultPromotionThreshold = 50

	// DefaultTenureLimit is the number of compiled forms after which the
	// controller reports overload and stops promoting.
	DefaultTenureLimit = 10000
)

// Config controls tiering. The zero value is usable: zero thresholds take
// their defaults and a nil Logger discards events.
type Config struct {
	// PromotionThreshold is the use count at which a site is compiled.
	PromotionThreshold uint `mapstructure:"promotion_threshold"`

	// TenureLimit bounds how many compiled forms may be created before the
	// controller is overloaded.
	TenureLimit uint `mapstructure:"tenure_limit"`

	// NullSafetyDefault makes every property segment null-safe.
	NullSafetyDefault bool `mapstructure:"null_safety"`

	Logger  *zerolog.Logger `mapstructure:"-"`
	OnEvent func(Event)     `mapstructure:"-"`
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		PromotionThreshold: DefaultPromotionThreshold,
		TenureLimit:        DefaultTenureLimit,
	}
}

func (c Config) normalize() Config {
	if c.PromotionThreshold == 0 {
		c.PromotionThreshold = DefaultPromotionThreshold
	}
	if c.TenureLimit == 0 {
		c.TenureLimit = DefaultTenureLimit
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
