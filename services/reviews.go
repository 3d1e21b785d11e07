package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/v71/github"

	"asana-pr-sync/models"
)

// Reconciler keeps one review subtask per (parent task, reviewer) pair.
type Reconciler struct {
	Client Client
	Config *Config
}

// Reconcile brings the target reviewer's subtask in line with the event.
// A fresh request creates the subtask or reopens a completed one; an
// approval completes it. Skipped and unmapped reviewers are logged no-ops.
func (r *Reconciler) Reconcile(ctx context.Context, task *models.Task, pr *github.PullRequest, reviewerLogin string, approved bool) error {
	if r.Config.IsSkipped(reviewerLogin) {
		log.Printf("reviewer %s is on the skip list, no subtask", reviewerLogin)
		return nil
	}
	email, ok := r.Config.EmailFor(reviewerLogin)
	if !ok {
		log.Printf("no asana mapping for reviewer %s, no subtask", reviewerLogin)
		return nil
	}

	subtasks, err := r.Client.ListSubtasks(ctx, task.GID)
	if err != nil {
		return err
	}

	var existing *models.Task
	for i := range subtasks {
		address, err := r.assigneeEmail(ctx, &subtasks[i])
		if err != nil {
			return err
		}
		if address != "" && strings.EqualFold(address, email) {
			existing = &subtasks[i]
			break
		}
	}

	switch {
	case existing == nil:
		existing, err = r.createSubtask(ctx, task, pr, reviewerLogin, email)
		if err != nil {
			return err
		}
	case existing.Completed && !approved:
		// Re-requested review: reopen instead of duplicating.
		completed := false
		if _, err := r.Client.UpdateTask(ctx, existing.GID, models.TaskRequest{Completed: &completed}); err != nil {
			return err
		}
		log.Printf("review subtask reopened for %s: gid=%s", reviewerLogin, existing.GID)
	}

	if approved && !existing.Completed {
		completed := true
		if _, err := r.Client.UpdateTask(ctx, existing.GID, models.TaskRequest{Completed: &completed}); err != nil {
			return err
		}
		log.Printf("review subtask completed for %s: gid=%s", reviewerLogin, existing.GID)
	}
	return nil
}

// assigneeEmail resolves a subtask's assignee to a contact address, looking
// the user up when the listing did not include the email.
func (r *Reconciler) assigneeEmail(ctx context.Context, subtask *models.Task) (string, error) {
	if subtask.Assignee == nil {
		return "", nil
	}
	if subtask.Assignee.Email != "" {
		return subtask.Assignee.Email, nil
	}
	user, err := r.Client.GetUser(ctx, subtask.Assignee.GID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (r *Reconciler) createSubtask(ctx context.Context, task *models.Task, pr *github.PullRequest, reviewerLogin, email string) (*models.Task, error) {
	followers := []string{email}
	if authorEmail, ok := r.Config.EmailFor(pr.GetUser().GetLogin()); ok && !strings.EqualFold(authorEmail, email) {
		followers = append(followers, authorEmail)
	}

	req := models.TaskRequest{
		Name: fmt.Sprintf("Review Request: %s", pr.GetTitle()),
		Notes: fmt.Sprintf("%s requested your review on %s.\n\nThis task is closed automatically when your review is submitted and approved.",
			pr.GetUser().GetLogin(), pr.GetHTMLURL()),
		Assignee:  email,
		Followers: followers,
	}
	subtask, err := r.Client.CreateSubtask(ctx, task.GID, req)
	if err != nil {
		return nil, err
	}
	log.Printf("review subtask created for %s: gid=%s", reviewerLogin, subtask.GID)
	return subtask, nil
}
