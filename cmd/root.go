// Package cmd implements the simgym command line interface
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SIMGYM"

// rootViper represents the configuration shared by all commands
var rootViper = viper.New()

const (
	rootLogLevelKey  = "log_level"
	rootLogFormatKey = "log_format"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "simgym",
	Short:         "Simulated control environments with domain randomization",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_cmd *cobra.Command, _args []string) error {
		return configureLog(rootViper)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newViper returns a viper reading environment variables prefixed with
// SIMGYM_, where nested keys are separated by underscores
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func init() {
	rootViper.SetEnvPrefix(envPrefix)
	rootViper.AutomaticEnv()

	rootViper.SetDefault(rootLogLevelKey, logrus.InfoLevel.String())
	rootCmd.PersistentFlags().String(
		rootLogLevelKey,
		rootViper.GetString(rootLogLevelKey),
		fmt.Sprintf("Minimum logging level as one of %v", expectedLogLevels),
	)

	rootViper.SetDefault(rootLogFormatKey, string(text))
	rootCmd.PersistentFlags().String(
		rootLogFormatKey,
		rootViper.GetString(rootLogFormatKey),
		fmt.Sprintf("Log format as one of %v", expectedLogFormats),
	)

	// Don't sort alphabetically, keep insertion order
	rootCmd.PersistentFlags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = rootViper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rolloutCmd)
}
