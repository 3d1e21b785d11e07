package services

import (
	"context"
	"log"

	"asana-pr-sync/models"
)

// Result is what a completed run reports back.
type Result struct {
	Outcome   string // "created" or "updated"
	TaskGID   string
	Permalink string
	Skipped   bool
	Reason    string
}

// Syncer runs one webhook event end to end.
type Syncer struct {
	Client   Client
	Config   *Config
	Renderer Renderer
	Retry    RetryPolicy
	Journal  *Journal  // optional
	Notifier *Notifier // optional
}

func NewSyncer(client Client, cfg *Config) *Syncer {
	return &Syncer{
		Client:   client,
		Config:   cfg,
		Renderer: PlainRenderer{},
		Retry:    DefaultRetryPolicy(),
	}
}

var relevantPRActions = map[string]bool{
	"opened":             true,
	"edited":             true,
	"reopened":           true,
	"closed":             true,
	"ready_for_review":   true,
	"converted_to_draft": true,
	"review_requested":   true,
}

func (s *Syncer) relevant(event *Event) bool {
	if event.PullRequest == nil {
		return false
	}
	switch event.Kind {
	case "pull_request":
		return relevantPRActions[event.Action]
	case "pull_request_review":
		return event.Action == "submitted"
	default:
		return false
	}
}

// Run converges the tracker to the pull request's current state for a
// single event.
func (s *Syncer) Run(ctx context.Context, event *Event) (*Result, error) {
	if !s.relevant(event) {
		return &Result{Skipped: true, Reason: "irrelevant event"}, nil
	}
	pr := event.PullRequest
	if s.Config.SkipTitlePattern != nil && s.Config.SkipTitlePattern.MatchString(pr.GetTitle()) {
		log.Printf("pr title %q matches the skip pattern, not syncing", pr.GetTitle())
		return &Result{Skipped: true, Reason: "excluded title"}, nil
	}

	fields, err := ResolveFields(ctx, s.Client, s.Config.WorkspaceID)
	if err != nil {
		return nil, err
	}

	content := BuildContent(pr, event.Repo, s.Renderer)

	resolver := &Resolver{Client: s.Client, Config: s.Config, Fields: fields, Retry: s.Retry, Journal: s.Journal}
	resolution, err := resolver.FindOrCreate(ctx, pr, event.Action, content)
	if err != nil {
		return nil, err
	}
	task := resolution.Task

	reconciler := &Reconciler{Client: s.Client, Config: s.Config}
	var completed *bool

	switch {
	case event.Kind == "pull_request_review":
		if event.Review.GetState() == "approved" {
			if err := reconciler.Reconcile(ctx, task, pr, event.Review.GetUser().GetLogin(), true); err != nil {
				return nil, err
			}
		} else {
			log.Printf("review state %q needs no reconciliation", event.Review.GetState())
		}
	case event.Action == "review_requested":
		if event.RequestedReviewer == nil {
			// Team review requests are out of scope.
			log.Printf("review_requested without an individual reviewer, nothing to do")
			break
		}
		if err := reconciler.Reconcile(ctx, task, pr, event.RequestedReviewer.GetLogin(), false); err != nil {
			return nil, err
		}
	case event.Action == "closed":
		policy := &ClosurePolicy{Client: s.Client, Config: s.Config}
		autoClose, err := policy.ShouldAutoClose(ctx, task.GID)
		if err != nil {
			return nil, err
		}
		if err := policy.CompleteSubtasks(ctx, task.GID); err != nil {
			return nil, err
		}
		if autoClose {
			yes := true
			completed = &yes
		}
	case resolution.Created:
		// A PR can arrive with reviewers already requested.
		for _, reviewer := range pr.RequestedReviewers {
			if err := reconciler.Reconcile(ctx, task, pr, reviewer.GetLogin(), false); err != nil {
				return nil, err
			}
		}
	}

	update := models.TaskRequest{
		Name:      content.Title,
		Completed: completed,
		CustomFields: map[string]string{
			fields.URLField.GID: pr.GetHTMLURL(),
		},
	}
	if optionGID, ok := fields.StatusOption(StatusName(pr)); ok {
		update.CustomFields[fields.StatusField.GID] = optionGID
	}
	if content.RichNotes != "" {
		update.HTMLNotes = content.RichNotes
	} else {
		update.Notes = content.Notes
	}

	updated, err := s.Client.UpdateTask(ctx, task.GID, update)
	if err != nil && update.HTMLNotes != "" && IsRenderRejection(err) {
		log.Printf("rich notes rejected, retrying with plaintext: %v", err)
		update.HTMLNotes = ""
		update.Notes = content.Notes
		updated, err = s.Client.UpdateTask(ctx, task.GID, update)
	}
	if err != nil {
		return nil, err
	}

	outcome := "updated"
	if resolution.Created {
		outcome = "created"
	}
	if s.Journal != nil {
		s.Journal.Record(pr.GetHTMLURL(), updated.GID, outcome)
	}

	result := &Result{Outcome: outcome, TaskGID: updated.GID, Permalink: updated.PermalinkURL}
	s.Notifier.SyncResult(result, pr.GetHTMLURL())
	log.Printf("sync %s: task=%s pr=%s", outcome, updated.GID, pr.GetHTMLURL())
	return result, nil
}
