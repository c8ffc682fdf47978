package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	mvel "github.com/mvel/mvel-sub010"
	"github.com/mvel/mvel-sub010/optimizer"
)

// loadConfig builds the optimizer configuration from flags, MVEL_*
// environment variables and the config file, in that order of precedence.
func loadConfig() (optimizer.Config, error) {
	cfg := optimizer.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    viper.GetBool("no-color"),
	}).Level(level).With().Timestamp().Logger()
}

func newEngine(opts ...mvel.Option) (*mvel.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	base := []mvel.Option{
		mvel.WithConfig(cfg),
		mvel.WithLogger(newLogger()),
	}
	return mvel.NewEngine(append(base, opts...)...), nil
}
