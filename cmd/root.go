// Package cmd provides the root command and CLI setup for build-optimizer.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hannajonsd/build-optimizer/analyzer"
	"github.com/hannajonsd/build-optimizer/optimizer"
)

var appFs afero.Fs
var buildOptimizer analyzer.Optimizer

var logFileFlag string
var verboseFlag bool

func init() {
	appFs = afero.NewOsFs()
	buildOptimizer = analyzer.OptimizerFunc(optimizer.BuildOptimizer)
}

const rootLongDescription = `build-optimizer rewrites compiled framework output so that bundlers can
drop what an application never uses. It removes decorator metadata, marks
load-time calls and class IIFEs as pure, and folds enums into single
pure expressions.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "build-optimizer",
		Short:        "Optimize compiled framework modules for tree shaking",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "file to write logs to")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level and list every file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().Bool(strictFlagName, viper.GetBool(strictConfigKey), "fail on unparseable input instead of skipping it")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(strictFlagName), strictConfigKey)

	cmd.PersistentFlags().Bool(sourceMapFlagName, viper.GetBool(sourceMapConfigKey), "write a source map next to every rewritten file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(sourceMapFlagName), sourceMapConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// colorEnabled reports whether w is a terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
