package services

import (
	"context"
	"log"

	"asana-pr-sync/models"
)

// ClosurePolicy decides what happens to the task tree when the pull
// request is closed.
type ClosurePolicy struct {
	Client Client
	Config *Config
}

// ShouldAutoClose is true unless the task belongs to a project on the
// no-autoclose list. Memberships are fetched fresh because listings project
// them away.
func (p *ClosurePolicy) ShouldAutoClose(ctx context.Context, taskGID string) (bool, error) {
	task, err := p.Client.GetTask(ctx, taskGID)
	if err != nil {
		return false, err
	}
	for _, membership := range task.Memberships {
		if membership.Project != nil && p.Config.IsAutocloseExempt(membership.Project.GID) {
			log.Printf("task %s is in no-autoclose project %s, leaving it open", taskGID, membership.Project.GID)
			return false, nil
		}
	}
	return true, nil
}

// CompleteSubtasks closes every open subtask. Review work is moot once the
// pull request is closed, whatever happens to the parent task.
func (p *ClosurePolicy) CompleteSubtasks(ctx context.Context, taskGID string) error {
	subtasks, err := p.Client.ListSubtasks(ctx, taskGID)
	if err != nil {
		return err
	}
	completed := true
	for i := range subtasks {
		if subtasks[i].Completed {
			continue
		}
		if _, err := p.Client.UpdateTask(ctx, subtasks[i].GID, models.TaskRequest{Completed: &completed}); err != nil {
			return err
		}
		log.Printf("subtask completed on close: gid=%s", subtasks[i].GID)
	}
	return nil
}
