package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"asana-pr-sync/handlers"
	"asana-pr-sync/services"
)

func main() {
	serve := flag.Bool("serve", false, "run as a webhook server instead of a single-event action")
	addr := flag.String("addr", ":8080", "listen address for -serve")
	eventName := flag.String("event-name", os.Getenv("GITHUB_EVENT_NAME"), "webhook event name")
	eventPath := flag.String("event", os.Getenv("GITHUB_EVENT_PATH"), "path to the webhook event payload")
	flag.Parse()

	cfg, err := services.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	syncer := services.NewSyncer(services.NewHTTPClient(cfg.AsanaToken), cfg)
	syncer.Notifier = services.NewNotifier(cfg.SlackToken, cfg.SlackChannelID)
	if cfg.JournalPath != "" {
		journal, err := services.OpenJournal(cfg.JournalPath)
		if err != nil {
			log.Fatalf("cannot open sync journal: %v", err)
		}
		syncer.Journal = journal
	}

	if *serve {
		r := gin.Default()
		r.POST("/webhook", handlers.HandleGitHubWebhook(syncer, cfg.GitHubWebhookSecret))
		if err := r.Run(*addr); err != nil {
			log.Fatal(err)
		}
		return
	}

	event, err := services.ReadEventFile(*eventName, *eventPath)
	if err != nil {
		log.Fatal(err)
	}

	result, err := syncer.Run(context.Background(), event)
	if err != nil {
		syncer.Notifier.SyncFailed(err, event.PullRequest.GetHTMLURL())
		log.Fatalf("sync failed: %v", err)
	}
	if result.Skipped {
		log.Printf("event skipped: %s", result.Reason)
		return
	}
	if err := writeActionOutputs(result); err != nil {
		log.Printf("output write error: %v", err)
	}
}

// writeActionOutputs appends the run's outputs to the GitHub Actions output
// file when one is provided.
func writeActionOutputs(result *services.Result) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "result=%s\npermalink=%s\ntask_gid=%s\n", result.Outcome, result.Permalink, result.TaskGID)
	return err
}
