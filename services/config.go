package services

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the run configuration, loaded once and passed explicitly to
// every component.
type Config struct {
	AsanaToken  string
	WorkspaceID string
	ProjectID   string
	SectionID   string

	// UserMap maps a GitHub login to the user's Asana account email.
	UserMap map[string]string
	// SkipUsers are logins that never get a personal review subtask.
	SkipUsers map[string]bool
	// NoAutocloseProjects are project gids whose tasks stay open when the
	// pull request is closed.
	NoAutocloseProjects map[string]bool

	// SkipTitlePattern excludes pull requests (release automation etc.)
	// from syncing entirely.
	SkipTitlePattern *regexp.Regexp

	GitHubWebhookSecret string

	SlackToken     string
	SlackChannelID string

	JournalPath string
}

const defaultSkipTitlePattern = `^(Release|release|Bump version)`

// LoadConfig reads configuration from the environment (and .env if present).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AsanaToken:          os.Getenv("ASANA_TOKEN"),
		WorkspaceID:         os.Getenv("ASANA_WORKSPACE_ID"),
		ProjectID:           os.Getenv("ASANA_PROJECT_ID"),
		SectionID:           os.Getenv("ASANA_SECTION_ID"),
		SkipUsers:           splitSet(os.Getenv("SKIP_USERS")),
		NoAutocloseProjects: splitSet(os.Getenv("NO_AUTOCLOSE_PROJECTS")),
		GitHubWebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
		SlackToken:          os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID:      os.Getenv("SLACK_CHANNEL_ID"),
		JournalPath:         os.Getenv("SYNC_JOURNAL_PATH"),
	}

	if cfg.AsanaToken == "" {
		return nil, fmt.Errorf("ASANA_TOKEN is not set")
	}
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("ASANA_WORKSPACE_ID is not set")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("ASANA_PROJECT_ID is not set")
	}

	cfg.UserMap = map[string]string{}
	if raw := os.Getenv("USER_MAP"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.UserMap); err != nil {
			return nil, fmt.Errorf("USER_MAP is not valid JSON: %v", err)
		}
	}

	pattern := os.Getenv("SKIP_TITLE_PATTERN")
	if pattern == "" {
		pattern = defaultSkipTitlePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("SKIP_TITLE_PATTERN is not a valid regexp: %v", err)
	}
	cfg.SkipTitlePattern = re

	return cfg, nil
}

// EmailFor returns the Asana email mapped to a GitHub login.
func (c *Config) EmailFor(login string) (string, bool) {
	email, ok := c.UserMap[login]
	return email, ok && email != ""
}

func (c *Config) IsSkipped(login string) bool {
	return c.SkipUsers[login]
}

func (c *Config) IsAutocloseExempt(projectGID string) bool {
	return c.NoAutocloseProjects[projectGID]
}

func splitSet(raw string) map[string]bool {
	set := map[string]bool{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			set[trimmed] = true
		}
	}
	return set
}
