package services

import (
	"context"
	"fmt"

	"asana-pr-sync/models"
)

// The two custom fields the workspace must define. Names are matched
// exactly.
const (
	urlFieldName    = "GitHub PR"
	statusFieldName = "PR Status"
)

// Status field option names, derived from the pull request state.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
	StatusMerged = "Merged"
	StatusDraft  = "Draft"
)

// FieldDirectory holds the resolved gids of the URL and Status fields for
// the current workspace.
type FieldDirectory struct {
	URLField    models.CustomField
	StatusField models.CustomField
}

// ResolveFields fetches the workspace's custom fields and locates the two
// this service writes. A missing field is a fatal setup error.
func ResolveFields(ctx context.Context, client Client, workspaceGID string) (*FieldDirectory, error) {
	fields, err := client.ListCustomFields(ctx, workspaceGID)
	if err != nil {
		return nil, err
	}

	dir := &FieldDirectory{}
	foundURL, foundStatus := false, false
	for _, field := range fields {
		switch field.Name {
		case urlFieldName:
			dir.URLField = field
			foundURL = true
		case statusFieldName:
			dir.StatusField = field
			foundStatus = true
		}
	}

	if !foundURL || !foundStatus {
		return nil, fmt.Errorf("%w: workspace %s must define %q and %q", ErrFieldsMissing, workspaceGID, urlFieldName, statusFieldName)
	}
	return dir, nil
}

// StatusOption returns the enum option gid for a status name.
func (d *FieldDirectory) StatusOption(name string) (string, bool) {
	for _, option := range d.StatusField.EnumOptions {
		if option.Name == name {
			return option.GID, true
		}
	}
	return "", false
}
