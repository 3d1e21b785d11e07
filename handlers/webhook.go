package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"

	"asana-pr-sync/services"
)

// HandleGitHubWebhook validates and parses a GitHub webhook delivery and
// runs the sync engine on it.
func HandleGitHubWebhook(syncer *services.Syncer, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := github.ValidatePayload(c.Request, []byte(secret))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		parsed, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse webhook"})
			return
		}

		var event *services.Event
		switch e := parsed.(type) {
		case *github.PullRequestEvent:
			event = services.EventFromPullRequest(e)
		case *github.PullRequestReviewEvent:
			event = services.EventFromReview(e)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "event ignored"})
			return
		}

		result, err := syncer.Run(c.Request.Context(), event)
		if err != nil {
			log.Printf("sync failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if result.Skipped {
			c.JSON(http.StatusOK, gin.H{"message": result.Reason})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result.Outcome, "permalink": result.Permalink})
	}
}
