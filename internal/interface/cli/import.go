package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/backlog"
	"github.com/YoshitsuguKoike/epicimport/internal/infra/config"
	"github.com/YoshitsuguKoike/epicimport/internal/infra/jira"
	"github.com/YoshitsuguKoike/epicimport/internal/usecase/importing"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <stories.json>",
		Short: "Import a stories document into the tracker",
		Long: `Import a JSON document of epics and stories into the configured project.

Items whose summary already exists in the tracker are skipped, so re-running
the same document is safe: the second run creates nothing.

Example document:
  {"epics": [{"summary": "Login", "stories": [{"summary": "Happy path"}]}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), afero.NewOsFs(), args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan only; show what would be created without calling the tracker")
	return cmd
}

func runImport(ctx context.Context, appFS afero.Fs, storiesPath string, dryRun bool) error {
	settings, err := config.LoadSettings(appFS, configPath)
	if err != nil {
		return err
	}

	doc, err := backlog.LoadDocument(appFS, storiesPath)
	if err != nil {
		return err
	}

	steps, err := backlog.Plan(doc)
	if err != nil {
		return fmt.Errorf("invalid stories document: %w", err)
	}

	if dryRun {
		renderPlan(os.Stdout, steps)
		return nil
	}

	// Console plus log file, the same stream the tracker outcomes go to.
	logOut := io.Writer(os.Stderr)
	if f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		defer f.Close()
		logOut = io.MultiWriter(os.Stderr, f)
	} else {
		fmt.Fprintf(os.Stderr, "WARN: cannot open log file %s: %v\n", settings.LogFile, err)
	}
	logger := InitGlobalLogger(settings.LogLevel, logOut)
	InitializeLoggers(logger)

	backend := jira.NewClient(jira.Config{
		BaseURL:       settings.Jira.URL,
		Username:      settings.Jira.Username,
		APIToken:      settings.Jira.APIToken,
		ProjectKey:    settings.Jira.ProjectKey,
		EpicTypeID:    settings.Jira.EpicTypeID,
		StoryTypeID:   settings.Jira.StoryTypeID,
		EpicName:      settings.Jira.EpicName,
		StoryName:     settings.Jira.StoryName,
		EpicLinkField: settings.Jira.EpicLinkField,
	})

	run := importing.NewExecutor(backend).Execute(ctx, steps)
	summary := importing.Summarize(run.Outcomes)
	renderReport(os.Stdout, run, summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", summary.Failed, len(run.Outcomes))
	}
	return nil
}
