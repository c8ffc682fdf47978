package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfgFile string
	red     = color.New(color.FgRed).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "mvel",
	Short:         "Evaluate MVEL expressions",
	Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("no-color") || !isTerminalIO() {
			color.NoColor = true
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mvel.yaml)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.BoolP("verbose", "v", false, "Log tier changes to stderr")
	pf.Uint("promotion-threshold", 0, "Uses before an access site is compiled")
	pf.Uint("tenure-limit", 0, "Compiled sites before promotion stops")
	pf.Bool("null-safe", false, "Treat every property access as null-safe")
	viper.BindPFlag("no-color", pf.Lookup("no-color"))
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("promotion_threshold", pf.Lookup("promotion-threshold"))
	viper.BindPFlag("tenure_limit", pf.Lookup("tenure-limit"))
	viper.BindPFlag("null_safety", pf.Lookup("null-safe"))

	rootCmd.AddCommand(evalCmd, parseCmd, benchCmd, serveCmd)
}

// initConfig reads in config file and MVEL_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fatal(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".mvel")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("mvel")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fatal(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
