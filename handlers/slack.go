package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/slack-go/slack"

	"snowgate/config"
	"snowgate/core"
	"snowgate/models"
	"snowgate/services"
	"snowgate/tasks"
)

// signatureFreshnessWindow is the replay-protection window: requests whose
// timestamp differs from the server clock by more than this are rejected
const signatureFreshnessWindow = 300 * time.Second

// ackResponse is the small JSON body the platform expects within its
// 3-second response deadline
type ackResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// SlackWebhooksHandler is the inbound trust boundary: it authenticates the
// webhook, extracts the command, acks immediately and schedules the real
// work as a deferred task.
type SlackWebhooksHandler struct {
	signingSecret     string
	verifySignatures  bool
	authorizedUserIDs []string
	commandsService   services.CommandsService
	responderService  services.ResponderService
	runner            *tasks.Runner
	notifier          core.ErrorNotifier
}

func NewSlackWebhooksHandler(
	slackConfig config.SlackConfig,
	commandsService services.CommandsService,
	responderService services.ResponderService,
	runner *tasks.Runner,
	notifier core.ErrorNotifier,
) *SlackWebhooksHandler {
	return &SlackWebhooksHandler{
		signingSecret:     slackConfig.SigningSecret,
		verifySignatures:  slackConfig.VerifySignatures,
		authorizedUserIDs: slackConfig.AuthorizedUserIDs,
		commandsService:   commandsService,
		responderService:  responderService,
		runner:            runner,
		notifier:          notifier,
	}
}

// verifySignature checks the request's authenticity and freshness. Rejection
// reasons are logged by the caller; neither the secret nor the computed
// signature ever appears in an error or a log line.
func (h *SlackWebhooksHandler) verifySignature(r *http.Request, body []byte) error {
	timestamp := r.Header.Get("X-Request-Timestamp")
	signature := r.Header.Get("X-Signature")

	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: missing required signature headers", core.ErrUnauthorized)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp format", core.ErrUnauthorized)
	}

	skew := time.Now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(signatureFreshnessWindow/time.Second) {
		return fmt.Errorf("%w: request timestamp outside freshness window", core.ErrUnauthorized)
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write([]byte(baseString))
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", core.ErrUnauthorized)
	}

	return nil
}

// authorize checks the requester against the allow-list. An empty list means
// the policy is disabled - every requester passes, and the decision is
// logged so non-production deployments can't drift into production silently.
func (h *SlackWebhooksHandler) authorize(userID string) error {
	if len(h.authorizedUserIDs) == 0 {
		log.Printf("⚠️ Allow-list is empty - authorizing user_id=%s (open access)", userID)
		return nil
	}
	if slices.Contains(h.authorizedUserIDs, userID) {
		return nil
	}
	log.Printf("⚠️ Unauthorized user attempted operation | user_id=%s", userID)
	return core.ErrForbidden
}

func (h *SlackWebhooksHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	log.Printf("⚡ Slash command received from %s", r.RemoteAddr)

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("❌ Failed to read request body: %v", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if h.verifySignatures {
		if err := h.verifySignature(r, bodyBytes); err != nil {
			log.Printf("⚠️ Signature verification failed: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	} else {
		log.Printf("⚠️ Signature verification disabled - accepting request as-is")
	}

	// Restore the body consumed for verification so form parsing sees the
	// identical bytes
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	command, err := slack.SlashCommandParse(r)
	if err != nil {
		log.Printf("❌ Failed to parse slash command: %v", err)
		http.Error(w, "failed to parse slash command", http.StatusBadRequest)
		return
	}

	if err := h.authorize(command.UserID); err != nil {
		http.Error(w, "You are not authorized to perform Snowflake operations.", http.StatusForbidden)
		return
	}

	text := strings.TrimSpace(command.Text)
	if text == "" {
		// The "help" pseudo-command is answered synchronously - nothing to defer
		writeAck(w, h.commandsService.HelpText())
		return
	}

	parts := strings.Fields(text)
	cmd := models.SlashCommand{
		InvocationID: core.NewID("cmd"),
		UserID:       command.UserID,
		Command:      command.Command,
		Subcommand:   strings.ToLower(parts[0]),
		Args:         parts[1:],
		ResponseURL:  command.ResponseURL,
	}

	log.Printf("⚡ Parsed slash command | id=%s user_id=%s subcommand=%s", cmd.InvocationID, cmd.UserID, cmd.Subcommand)

	// Ack first: the 200 must be on the wire before the deferred task starts.
	// The flush below guarantees transmission, not just buffering.
	writeAck(w, fmt.Sprintf("⏳ Processing `%s`...", text))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if err := h.runner.Go("command "+cmd.InvocationID, func(ctx context.Context) {
		result := h.commandsService.Dispatch(ctx, cmd)
		h.responderService.Deliver(ctx, cmd.ResponseURL, result)
	}); err != nil {
		// The ack already went out - the command is silently lost from the
		// requester's point of view, so this is the operator's only signal
		log.Printf("❌ Failed to schedule deferred task | id=%s error=%v", cmd.InvocationID, err)
		if h.notifier != nil {
			h.notifier.NotifyError("schedule deferred task "+cmd.InvocationID, err)
		}
	}
}

func writeAck(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ackResponse{
		ResponseType: "ephemeral",
		Text:         text,
	}); err != nil {
		log.Printf("❌ Failed to write ack response: %v", err)
	}
}

func (h *SlackWebhooksHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering Slack command endpoint on /slack/command")
	router.HandleFunc("/slack/command", h.HandleSlashCommand).Methods("POST")
}
