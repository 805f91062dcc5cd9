package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hannajonsd/build-optimizer/optimizer"
	"github.com/hannajonsd/build-optimizer/transform"
)

const optimizeLongDescription = `Optimize a single compiled module.

The file is classified by its path: framework packages and rxjs are treated
as free of load-time side effects. --side-effect-free and --core override
that. The result goes to stdout unless --out is given.`

var optimizeOutFlag string
var optimizeSideEffectFreeFlag bool
var optimizeCoreFlag bool

// optimizeCmd represents the optimize command.
var optimizeCmd = newOptimizeCmd()

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <file>",
		Short: "Optimize a single compiled module",
		Long:  optimizeLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optimizer.Options{
				InputFilePath:  args[0],
				OutputFilePath: optimizeOutFlag,
				EmitSourceMap:  viper.GetBool(sourceMapConfigKey) && optimizeOutFlag != "",
				Strict:         viper.GetBool(strictConfigKey),
				Fs:             appFs,
			}
			if cmd.Flags().Changed(sideEffectFreeFlagName) {
				opts.IsSideEffectFree = &optimizeSideEffectFreeFlag
			}
			if cmd.Flags().Changed(coreFlagName) {
				opts.IsFrameworkCoreFile = &optimizeCoreFlag
			}

			result, err := buildOptimizer.Optimize(cmd.Context(), opts)
			if err != nil {
				return err
			}

			return writeOptimized(cmd.OutOrStdout(), args[0], optimizeOutFlag, result)
		},
	}

	configureOptimizeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func configureOptimizeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&optimizeOutFlag, outFlagName, "o", "", "write the optimized module to this file instead of stdout")
	cmd.Flags().BoolVar(&optimizeSideEffectFreeFlag, sideEffectFreeFlagName, false, "treat the module as free of load-time side effects")
	cmd.Flags().BoolVar(&optimizeCoreFlag, coreFlagName, false, "treat the module as the framework core package")
}

// writeOptimized writes the optimized module, or the input when nothing
// changed, to out or stdout.
func writeOptimized(stdout io.Writer, input, out string, result *transform.Result) error {
	content := []byte(result.Content)
	if result.EmitSkipped {
		data, err := afero.ReadFile(appFs, input)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", input, err)
		}
		content = data
	}

	if out == "" {
		_, err := stdout.Write(content)
		return err
	}

	if err := appFs.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", out, err)
	}
	if err := afero.WriteFile(appFs, out, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	if result.SourceMap == nil {
		return nil
	}

	mapData, err := result.SourceMap.ToJSON()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(appFs, out+".map", mapData, 0o644); err != nil {
		return fmt.Errorf("failed to write %s.map: %w", out, err)
	}

	return nil
}
