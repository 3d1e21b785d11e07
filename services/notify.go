package services

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// Notifier posts sync results to a Slack channel. It is optional and
// best-effort: notification failures are logged, never fatal.
type Notifier struct {
	client  *slack.Client
	channel string
}

// NewNotifier returns nil when Slack is not configured; a nil Notifier is
// safe to call.
func NewNotifier(token, channel string) *Notifier {
	if token == "" || channel == "" {
		return nil
	}
	return &Notifier{client: slack.New(token), channel: channel}
}

func (n *Notifier) SyncResult(result *Result, prURL string) {
	if n == nil {
		return
	}
	var text string
	switch result.Outcome {
	case "created":
		text = fmt.Sprintf("asana task created for %s: %s", prURL, result.Permalink)
	default:
		text = fmt.Sprintf("asana task updated for %s: %s", prURL, result.Permalink)
	}
	n.post(text)
}

func (n *Notifier) SyncFailed(runErr error, prURL string) {
	if n == nil {
		return
	}
	n.post(fmt.Sprintf("asana sync failed for %s: %v", prURL, runErr))
}

func (n *Notifier) post(text string) {
	if _, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("slack notify failed: %v", err)
	}
}
