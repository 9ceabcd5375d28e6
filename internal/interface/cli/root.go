package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// configPath is the config file used by all commands. Flag > env > default.
var configPath string

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epicimport",
		Short: "Import epics and stories into Jira without creating duplicates",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath == "" {
				configPath = os.Getenv("EPICIMPORT_CONFIG")
			}
			if configPath == "" {
				configPath = "config.yaml"
			}
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config YAML file (default config.yaml)")
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newMetadataCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
