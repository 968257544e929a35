// Package handler provides the HTTP handlers of the webhook server.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/jobs"
)

// WebhookHandler turns GitHub webhooks into scan jobs.
type WebhookHandler struct {
	secret     []byte
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a webhook handler that verifies payloads with secret.
func NewWebhookHandler(secret string, dispatcher core.JobDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:     []byte(secret),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes GitHub webhook requests. Scans are triggered by "/scan" comments
// on pull requests and by opened, reopened or synchronized pull requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	var (
		scanEvent *core.GitHubEvent
		reason    error
	)
	switch e := event.(type) {
	case *github.IssueCommentEvent:
		scanEvent, reason = core.EventFromIssueComment(e)
	case *github.PullRequestEvent:
		scanEvent, reason = core.EventFromPullRequest(e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		_, _ = fmt.Fprint(w, "Event type not handled")
		return
	}
	if reason != nil {
		h.logger.Debug("ignoring webhook", "type", github.WebHookType(r), "reason", reason.Error())
		_, _ = fmt.Fprint(w, "Event ignored")
		return
	}

	h.dispatch(r.Context(), w, scanEvent)
}

func (h *WebhookHandler) dispatch(ctx context.Context, w http.ResponseWriter, event *core.GitHubEvent) {
	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		h.logger.Error("failed to dispatch scan job", "error", err, "repo", event.RepoFullName)
		if errors.Is(err, jobs.ErrQueueFull) {
			http.Error(w, "Too many scans queued", http.StatusServiceUnavailable)
			return
		}
		if errors.Is(err, jobs.ErrStopped) {
			http.Error(w, "Shutting down", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Failed to start scan job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("scan job dispatched", "repo", event.RepoFullName, "pr", event.PRNumber)
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Scan job accepted")
}
