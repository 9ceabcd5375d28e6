package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// rawSettings mirrors the config YAML file. Pointer fields distinguish
// "absent" from "set to zero value" so env overrides and defaults layer
// cleanly on top.
type rawSettings struct {
	Jira struct {
		URL           *string `yaml:"url"`
		Username      *string `yaml:"username"`
		APIToken      *string `yaml:"api_token"`
		ProjectKey    *string `yaml:"project_key"`
		EpicTypeID    *string `yaml:"epic_type_id"`
		StoryTypeID   *string `yaml:"story_type_id"`
		EpicName      *string `yaml:"epic_name"`
		StoryName     *string `yaml:"story_name"`
		EpicLinkField *string `yaml:"epic_link_field"`
	} `yaml:"jira"`
	Log struct {
		File  *string `yaml:"file"`
		Level *string `yaml:"level"`
	} `yaml:"log"`
}

// JiraSettings is the resolved tracker connection configuration.
type JiraSettings struct {
	URL           string
	Username      string
	APIToken      string
	ProjectKey    string
	EpicTypeID    string
	StoryTypeID   string
	EpicName      string
	StoryName     string
	EpicLinkField string
}

// Settings is the resolved application configuration for one run.
// Priority: environment > config file > defaults.
type Settings struct {
	Jira     JiraSettings
	LogFile  string
	LogLevel string
}

// LoadSettings loads and resolves configuration from a YAML file.
// EPICIMPORT_URL, EPICIMPORT_USERNAME, EPICIMPORT_API_TOKEN,
// EPICIMPORT_PROJECT_KEY and EPICIMPORT_LOG_LEVEL override file values, so
// the API token can stay out of the file entirely.
func LoadSettings(fs afero.Fs, path string) (*Settings, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw rawSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	s := &Settings{
		Jira: JiraSettings{
			URL:           override("EPICIMPORT_URL", strOrEmpty(raw.Jira.URL)),
			Username:      override("EPICIMPORT_USERNAME", strOrEmpty(raw.Jira.Username)),
			APIToken:      override("EPICIMPORT_API_TOKEN", strOrEmpty(raw.Jira.APIToken)),
			ProjectKey:    override("EPICIMPORT_PROJECT_KEY", strOrEmpty(raw.Jira.ProjectKey)),
			EpicTypeID:    strOrEmpty(raw.Jira.EpicTypeID),
			StoryTypeID:   strOrEmpty(raw.Jira.StoryTypeID),
			EpicName:      strOrEmpty(raw.Jira.EpicName),
			StoryName:     strOrEmpty(raw.Jira.StoryName),
			EpicLinkField: strOrEmpty(raw.Jira.EpicLinkField),
		},
		LogFile:  strOrDefault(raw.Log.File, "epicimport.log"),
		LogLevel: override("EPICIMPORT_LOG_LEVEL", strOrDefault(raw.Log.Level, "info")),
	}

	// Accept bare hostnames like mysite.atlassian.net.
	if s.Jira.URL != "" && !strings.Contains(s.Jira.URL, "://") {
		s.Jira.URL = "https://" + s.Jira.URL
	}
	s.Jira.URL = strings.TrimSuffix(s.Jira.URL, "/")

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	var missing []string
	if s.Jira.URL == "" {
		missing = append(missing, "jira.url")
	}
	if s.Jira.Username == "" {
		missing = append(missing, "jira.username")
	}
	if s.Jira.APIToken == "" {
		missing = append(missing, "jira.api_token")
	}
	if s.Jira.ProjectKey == "" {
		missing = append(missing, "jira.project_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func override(envKey, fileValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fileValue
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strOrDefault(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
