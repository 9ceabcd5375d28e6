package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
	"github.com/YoshitsuguKoike/epicimport/internal/infra/config"
	"github.com/YoshitsuguKoike/epicimport/internal/infra/jira"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newMetadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata",
		Short: "Print tracker metadata needed to fill in the config file",
		Long: `Print the projects, issue types and fields visible to the configured
credentials. Use the output to pick project_key, epic_type_id and
story_type_id values for the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd.Context(), afero.NewOsFs(), os.Stdout)
		},
	}
}

func runMetadata(ctx context.Context, appFS afero.Fs, out io.Writer) error {
	settings, err := config.LoadSettings(appFS, configPath)
	if err != nil {
		return err
	}

	backend := jira.NewClient(jira.Config{
		BaseURL:    settings.Jira.URL,
		Username:   settings.Jira.Username,
		APIToken:   settings.Jira.APIToken,
		ProjectKey: settings.Jira.ProjectKey,
	})

	meta, err := backend.FetchMetadata(ctx)
	if err != nil {
		return fmt.Errorf("fetching metadata: %w", err)
	}

	renderMetadata(out, meta)
	return nil
}

func renderMetadata(out io.Writer, meta *issue.Metadata) {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "=== Available Projects ===")
	fmt.Fprintln(w, "KEY\tNAME\tID")
	for _, p := range meta.Projects {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Name, p.ID)
	}

	fmt.Fprintln(w, "\n=== Issue Types ===")
	fmt.Fprintln(w, "ID\tNAME\tSUBTASK")
	for _, t := range meta.IssueTypes {
		fmt.Fprintf(w, "%s\t%s\t%v\n", t.ID, t.Name, t.Subtask)
	}

	fmt.Fprintln(w, "\n=== Fields ===")
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, f := range meta.Fields {
		schema := f.Schema
		if schema == "" {
			schema = "N/A"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, schema)
	}

	w.Flush()
}
