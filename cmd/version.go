package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo is swapped in tests.
var buildInfo = debug.ReadBuildInfo

// versionLines describes the binary: module version, VCS revision when
// stamped, and the Go toolchain.
func versionLines(info *debug.BuildInfo) []string {
	if info == nil || info.Main.Version == "" {
		return []string{"version: unknown"}
	}

	lines := []string{"build-optimizer " + info.Main.Version}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			lines = append(lines, "revision "+setting.Value)
		}
	}

	return append(lines, "go "+info.GoVersion)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build-optimizer version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := buildInfo()
			if !ok {
				info = nil
			}
			for _, line := range versionLines(info) {
				cmd.Println(line)
			}
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
