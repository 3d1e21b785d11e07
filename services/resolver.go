package services

import (
	"context"
	"log"
	"time"

	"github.com/google/go-github/v71/github"

	"asana-pr-sync/models"
)

// RetryPolicy bounds the resolver's wait for the search index to catch up
// with a recent write. Sleep is injectable so tests run without delays.
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
	Sleep    func(time.Duration)
}

// The search index lags writes by tens of seconds, so the defaults wait in
// matching units.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Interval: 20 * time.Second, Sleep: time.Sleep}
}

const fallbackScanLimit = 100

// Resolver finds the task tracking a pull request, creating it on first
// sight.
type Resolver struct {
	Client  Client
	Config  *Config
	Fields  *FieldDirectory
	Retry   RetryPolicy
	Journal *Journal // optional
}

// Resolution is the canonical task for the pull request and whether this
// run created it.
type Resolution struct {
	Task    *models.Task
	Created bool
}

// FindOrCreate resolves the pull request's task. A freshly opened PR cannot
// have one yet, so "opened" always creates. Otherwise the indexed search is
// tried first, then a scan of the project's newest tasks, retried across
// the consistency window. When the whole budget misses, the PR is treated
// as pre-existing-but-untracked and a new task is created; a possible
// duplicate beats a permanently unsynced pull request.
func (r *Resolver) FindOrCreate(ctx context.Context, pr *github.PullRequest, action string, content Content) (*Resolution, error) {
	if action == "opened" {
		return r.create(ctx, pr, content)
	}

	prURL := pr.GetHTMLURL()

	if r.Journal != nil {
		if gid, ok := r.Journal.Lookup(prURL); ok {
			task, err := r.Client.GetTask(ctx, gid)
			if err == nil {
				return &Resolution{Task: task}, nil
			}
			log.Printf("journal entry for %s is stale (task %s): %v", prURL, gid, err)
		}
	}

	for attempt := 1; attempt <= r.Retry.Attempts; attempt++ {
		task, err := r.lookup(ctx, prURL)
		if err != nil {
			return nil, err
		}
		if task != nil {
			if r.Journal != nil {
				r.Journal.Record(prURL, task.GID, "updated")
			}
			return &Resolution{Task: task}, nil
		}
		if attempt < r.Retry.Attempts {
			log.Printf("task for %s not visible yet (attempt %d/%d), waiting %s", prURL, attempt, r.Retry.Attempts, r.Retry.Interval)
			r.Retry.Sleep(r.Retry.Interval)
		}
	}

	log.Printf("no task found for %s after %d attempts, creating a new one", prURL, r.Retry.Attempts)
	return r.create(ctx, pr, content)
}

func (r *Resolver) lookup(ctx context.Context, prURL string) (*models.Task, error) {
	tasks, err := r.Client.SearchTasksByCustomField(ctx, r.Config.WorkspaceID, r.Fields.URLField.GID, prURL)
	if err != nil {
		return nil, err
	}
	if len(tasks) > 0 {
		return &tasks[0], nil
	}

	// A task created moments ago may not be indexed yet but is near the
	// front of the project's recency-ordered listing.
	recent, err := r.Client.ListProjectTasks(ctx, r.Config.ProjectID, fallbackScanLimit)
	if err != nil {
		return nil, err
	}
	for i := range recent {
		if value := recent[i].CustomFieldValue(r.Fields.URLField.GID); value != nil && value.DisplayValue == prURL {
			return &recent[i], nil
		}
	}
	return nil, nil
}

func (r *Resolver) create(ctx context.Context, pr *github.PullRequest, content Content) (*Resolution, error) {
	req := models.TaskRequest{
		Name:     content.Title,
		Notes:    content.Notes,
		Projects: []string{r.Config.ProjectID},
		CustomFields: map[string]string{
			r.Fields.URLField.GID: pr.GetHTMLURL(),
		},
	}
	if optionGID, ok := r.Fields.StatusOption(StatusName(pr)); ok {
		req.CustomFields[r.Fields.StatusField.GID] = optionGID
	}

	task, err := r.Client.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("task created for %s: gid=%s", pr.GetHTMLURL(), task.GID)

	if parentGID := ExtractParentTaskGID(pr.GetBody()); parentGID != "" {
		if err := r.Client.SetParent(ctx, task.GID, parentGID); err != nil {
			if !IsPermissionError(err) {
				return nil, err
			}
			log.Printf("parent task %s is not accessible, dropping link: %v", parentGID, err)
		}
	}

	if r.Config.SectionID != "" {
		if err := r.Client.AddTaskToSection(ctx, r.Config.SectionID, task.GID); err != nil {
			log.Printf("section move failed for task %s: %v", task.GID, err)
		}
	}

	if r.Journal != nil {
		r.Journal.Record(pr.GetHTMLURL(), task.GID, "created")
	}
	return &Resolution{Task: task, Created: true}, nil
}
