package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show slideinspo version information",
	Long:  `Display version, build time, commit hash, and platform information for the slideinspo binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()

		if display.ShouldOutputJSON(cmd) {
			if err := display.OutputJSON(info); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error formatting JSON: %v\n", err)
			}
		} else {
			fmt.Println(info.String())
			fmt.Printf("Go: %s\n", info.GoVersion)
		}
	},
}
