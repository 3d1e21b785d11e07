package services

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-github/v71/github"
)

// Event is the normalized webhook input the engine runs on.
type Event struct {
	Kind              string // "pull_request" or "pull_request_review"
	Action            string
	Repo              string
	PullRequest       *github.PullRequest
	Review            *github.PullRequestReview
	RequestedReviewer *github.User
	Sender            *github.User
}

func EventFromPullRequest(e *github.PullRequestEvent) *Event {
	return &Event{
		Kind:              "pull_request",
		Action:            e.GetAction(),
		Repo:              e.GetRepo().GetName(),
		PullRequest:       e.GetPullRequest(),
		RequestedReviewer: e.GetRequestedReviewer(),
		Sender:            e.GetSender(),
	}
}

func EventFromReview(e *github.PullRequestReviewEvent) *Event {
	return &Event{
		Kind:        "pull_request_review",
		Action:      e.GetAction(),
		Repo:        e.GetRepo().GetName(),
		PullRequest: e.GetPullRequest(),
		Review:      e.GetReview(),
		Sender:      e.GetSender(),
	}
}

// ReadEventFile loads a GitHub Actions event payload (GITHUB_EVENT_PATH).
// Unknown event names produce an Event the engine will report as skipped.
func ReadEventFile(name, path string) (*Event, error) {
	if path == "" {
		return nil, fmt.Errorf("event payload path is not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read event payload: %v", err)
	}

	switch name {
	case "pull_request", "pull_request_target":
		var event github.PullRequestEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("cannot parse %s payload: %v", name, err)
		}
		return EventFromPullRequest(&event), nil
	case "pull_request_review":
		var event github.PullRequestReviewEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("cannot parse %s payload: %v", name, err)
		}
		return EventFromReview(&event), nil
	default:
		return &Event{Kind: name}, nil
	}
}
