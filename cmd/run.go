package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hannajonsd/build-optimizer/analyzer"
)

const runLongDescription = `Optimize every compiled module below a directory (default: current
directory).

Only files of packages that ship type declarations are rewritten unless --all
is set. Hidden directories and paths matched by the root .gitignore are
skipped. Files are rewritten in place unless --out-dir is given, in which case
the tree is mirrored there.`

var runOutDirFlag string
var runParallelFlag int
var runAllFlag bool
var runReportFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Optimize a directory of compiled modules",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}

			report, err := analyzer.New(appFs, buildOptimizer).Run(cmd.Context(), analyzer.Options{
				Root:          root,
				OutDir:        viper.GetString(runOutDirConfigKey),
				Parallel:      viper.GetInt(runParallelConfigKey),
				All:           viper.GetBool(runAllConfigKey),
				Strict:        viper.GetBool(strictConfigKey),
				EmitSourceMap: viper.GetBool(sourceMapConfigKey),
			})
			if report == nil {
				return err
			}

			analyzer.PrintSummary(cmd.OutOrStdout(), report, viper.GetBool(logVerboseKey), colorEnabled(cmd.OutOrStdout()))

			if path := viper.GetString(runReportConfigKey); path != "" {
				if werr := analyzer.WriteReport(appFs, path, report); werr != nil {
					return werr
				}
			}

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runOutDirFlag, outDirFlagName, viper.GetString(runOutDirConfigKey), "mirror optimized files into this directory instead of rewriting in place")
	bindFlagToConfig(cmd.Flags().Lookup(outDirFlagName), runOutDirConfigKey)

	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of files optimized concurrently")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().BoolVar(&runAllFlag, runAllFlagName, viper.GetBool(runAllConfigKey), "optimize files of packages without type declarations too")
	bindFlagToConfig(cmd.Flags().Lookup(runAllFlagName), runAllConfigKey)

	cmd.Flags().StringVar(&runReportFlag, reportFlagName, viper.GetString(runReportConfigKey), "write a YAML report of the run to this file")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), runReportConfigKey)
}
