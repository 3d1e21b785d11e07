package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/google/go-github/v71/github"
)

// Renderer turns plaintext notes into the tracker's rich-text markup.
type Renderer interface {
	Render(text string) (string, error)
}

// PlainRenderer escapes the notes and wraps them in the root element Asana
// expects for html_notes.
type PlainRenderer struct{}

func (PlainRenderer) Render(text string) (string, error) {
	return "<body>" + html.EscapeString(text) + "</body>", nil
}

const (
	bodyCharLimit  = 5000
	notesPreamble  = "This task is synced automatically from GitHub. Edits to this description will be overwritten."
	truncationMark = "..."
)

// Content is what the task should look like for the pull request's current
// state.
type Content struct {
	Title     string
	Notes     string
	RichNotes string
}

// BuildContent derives the task title and notes from the pull request
// snapshot. A renderer failure leaves RichNotes empty; the update path then
// uses the plaintext notes.
func BuildContent(pr *github.PullRequest, repoName string, renderer Renderer) Content {
	title := fmt.Sprintf("%s PR #%d: %s", repoName, pr.GetNumber(), pr.GetTitle())

	body := truncateBody(stripFooter(pr.GetBody()))
	notes := notesPreamble + "\n\n" + pr.GetHTMLURL()
	if body != "" {
		notes += "\n\n" + body
	}

	content := Content{Title: title, Notes: notes}
	rich, err := renderer.Render(notes)
	if err == nil {
		content.RichNotes = rich
	}
	return content
}

// stripFooter removes a trailing horizontal-rule section (a line that is
// exactly "---" and everything after it), which is where bots append their
// own footers.
func stripFooter(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == "---" {
			lines = lines[:i]
			break
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\r\n ")
}

func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= bodyCharLimit {
		return body
	}
	return string(runes[:bodyCharLimit]) + truncationMark
}

// StatusName maps pull request flags to a Status field option. Merged is
// checked first because a merged PR also reports state "closed".
func StatusName(pr *github.PullRequest) string {
	switch {
	case pr.GetMerged():
		return StatusMerged
	case pr.GetState() == "open" && pr.GetDraft():
		return StatusDraft
	case pr.GetState() == "open":
		return StatusOpen
	default:
		return StatusClosed
	}
}

// A parent back-reference is a literal "Asana" marker followed by a task
// URL; the last numeric path segment is the task gid. No match means no
// parent.
var parentRefPattern = regexp.MustCompile(`(?i)asana(?: task)?:\s*https://app\.asana\.com/(?:[0-9]+/)*([0-9]+)`)

// ExtractParentTaskGID pulls a referenced parent task gid out of the pull
// request body, or returns "" when none is referenced.
func ExtractParentTaskGID(body string) string {
	match := parentRefPattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	return match[1]
}
