package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"snowgate/config"
	"snowgate/core"
	"snowgate/models"
	commandsservice "snowgate/services/commands"
	responderservice "snowgate/services/responder"
	"snowgate/tasks"
)

const testSigningSecret = "test_signing_secret"

func commandBody(text string) string {
	form := url.Values{}
	form.Set("user_id", "U123")
	form.Set("command", "/snowflake")
	form.Set("text", text)
	form.Set("response_url", "https://hooks.example.com/commands/T1/cb")
	return form.Encode()
}

func signBody(secret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signedRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Request-Timestamp", timestamp)
	req.Header.Set("X-Signature", signBody(testSigningSecret, timestamp, body))
	return req
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) NotifyError(context string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, fmt.Sprintf("%s: %v", context, err))
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func newTestHandler(
	commandsService *commandsservice.MockCommandsService,
	responderService *responderservice.MockResponderService,
	runner *tasks.Runner,
	authorizedUserIDs []string,
) *SlackWebhooksHandler {
	return NewSlackWebhooksHandler(
		config.SlackConfig{
			SigningSecret:     testSigningSecret,
			AuthorizedUserIDs: authorizedUserIDs,
			VerifySignatures:  true,
		},
		commandsService,
		responderService,
		runner,
		nil,
	)
}

func TestHandleSlashCommand_AcceptsValidSignatureAndSchedules(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := newTestHandler(mockCommands, mockResponder, runner, nil)

	result := &models.CommandResult{Success: true, Message: "done"}
	mockCommands.On("Dispatch", mock.Anything, mock.MatchedBy(func(cmd models.SlashCommand) bool {
		return cmd.Subcommand == "onboard" &&
			len(cmd.Args) == 2 && cmd.Args[0] == "john" && cmd.Args[1] == "ANALYST" &&
			cmd.UserID == "U123" && strings.HasPrefix(cmd.InvocationID, "cmd_")
	})).Return(result)
	mockResponder.On("Deliver", mock.Anything, "https://hooks.example.com/commands/T1/cb", result).Return()

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("onboard john ANALYST")))

	assert.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ephemeral", ack["response_type"])
	assert.Contains(t, ack["text"], "Processing")

	// Wait for the deferred task before checking expectations
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
	mockCommands.AssertExpectations(t)
	mockResponder.AssertExpectations(t)
}

func TestHandleSlashCommand_SubcommandIsLowercased(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := newTestHandler(mockCommands, mockResponder, runner, nil)

	mockCommands.On("Dispatch", mock.Anything, mock.MatchedBy(func(cmd models.SlashCommand) bool {
		return cmd.Subcommand == "onboard"
	})).Return(&models.CommandResult{})
	mockResponder.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return()

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("ONBOARD john ANALYST")))

	assert.Equal(t, http.StatusOK, rec.Code)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
	mockCommands.AssertExpectations(t)
}

func TestHandleSlashCommand_MissingHeadersRejected(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	body := commandBody("onboard john ANALYST")
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_StaleTimestampRejected(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	body := commandBody("onboard john ANALYST")
	// Correctly signed, but 400 seconds in the past
	staleTimestamp := strconv.FormatInt(time.Now().Add(-400*time.Second).Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-Timestamp", staleTimestamp)
	req.Header.Set("X-Signature", signBody(testSigningSecret, staleTimestamp, body))

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_FutureTimestampRejected(t *testing.T) {
	handler := newTestHandler(&commandsservice.MockCommandsService{}, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	body := commandBody("onboard john ANALYST")
	futureTimestamp := strconv.FormatInt(time.Now().Add(400*time.Second).Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-Timestamp", futureTimestamp)
	req.Header.Set("X-Signature", signBody(testSigningSecret, futureTimestamp, body))

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSlashCommand_UnparsableTimestampRejected(t *testing.T) {
	handler := newTestHandler(&commandsservice.MockCommandsService{}, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	body := commandBody("onboard john ANALYST")
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-Timestamp", "not-a-number")
	req.Header.Set("X-Signature", signBody(testSigningSecret, "not-a-number", body))

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSlashCommand_TamperedBodyRejected(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	// Signed over one body, delivered with another
	req := signedRequest(commandBody("onboard john ANALYST"))
	tampered := commandBody("onboard mallory ACCOUNTADMIN")
	req.Body = httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(tampered)).Body

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_VerificationDisabledStillParses(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := NewSlackWebhooksHandler(
		config.SlackConfig{VerifySignatures: false},
		mockCommands, mockResponder, runner, nil,
	)

	mockCommands.On("Dispatch", mock.Anything, mock.MatchedBy(func(cmd models.SlashCommand) bool {
		return cmd.Subcommand == "reset-credential" && len(cmd.Args) == 1
	})).Return(&models.CommandResult{})
	mockResponder.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return()

	// No signature headers at all
	body := commandBody("reset-credential john")
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
	mockCommands.AssertExpectations(t)
}

func TestHandleSlashCommand_EmptyAllowListAuthorizesAnyone(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := newTestHandler(mockCommands, mockResponder, runner, nil)

	mockCommands.On("Dispatch", mock.Anything, mock.Anything).Return(&models.CommandResult{})
	mockResponder.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return()

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("reset-credential john")))

	assert.Equal(t, http.StatusOK, rec.Code)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}

func TestHandleSlashCommand_AllowListExactMatch(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := newTestHandler(mockCommands, mockResponder, runner, []string{"U123", "U456"})

	mockCommands.On("Dispatch", mock.Anything, mock.Anything).Return(&models.CommandResult{})
	mockResponder.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return()

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("reset-credential john")))
	assert.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}

func TestHandleSlashCommand_UnlistedUserForbidden(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, tasks.NewRunner(nil), []string{"U999"})

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("reset-credential john")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_NoCaseFoldingOnAllowList(t *testing.T) {
	handler := newTestHandler(&commandsservice.MockCommandsService{}, &responderservice.MockResponderService{}, tasks.NewRunner(nil), []string{"u123"})

	// Requester is U123; the list holds u123 - identifiers are opaque tokens
	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("reset-credential john")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSlashCommand_EmptyTextAnsweredSynchronously(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	mockCommands.On("HelpText").Return("*Available commands:*\n• `/snowflake onboard <username> <role>`")

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("")))

	assert.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ephemeral", ack["response_type"])
	assert.Contains(t, ack["text"], "Available commands")
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_AckLatencyIndependentOfExecutor(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	mockResponder := &responderservice.MockResponderService{}
	runner := tasks.NewRunner(nil)
	handler := newTestHandler(mockCommands, mockResponder, runner, nil)

	// Executor takes 500ms; the ack must not wait for it
	mockCommands.On("Dispatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { time.Sleep(500 * time.Millisecond) }).
		Return(&models.CommandResult{})
	mockResponder.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return()

	rec := httptest.NewRecorder()
	start := time.Now()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("onboard john ANALYST")))
	ackLatency := time.Since(start)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, ackLatency, 250*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}

func TestHandleSlashCommand_SchedulingFailureStillAcks(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	runner := tasks.NewRunner(nil)
	require.NoError(t, runner.Shutdown(context.Background()))
	handler := newTestHandler(mockCommands, &responderservice.MockResponderService{}, runner, nil)

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("onboard john ANALYST")))

	// The command is lost, but dropping the ack would be worse
	assert.Equal(t, http.StatusOK, rec.Code)
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestHandleSlashCommand_SchedulingFailureReachesNotifier(t *testing.T) {
	mockCommands := &commandsservice.MockCommandsService{}
	runner := tasks.NewRunner(nil)
	require.NoError(t, runner.Shutdown(context.Background()))
	notifier := &recordingNotifier{}
	handler := NewSlackWebhooksHandler(
		config.SlackConfig{SigningSecret: testSigningSecret, VerifySignatures: true},
		mockCommands, &responderservice.MockResponderService{}, runner, notifier,
	)

	rec := httptest.NewRecorder()
	handler.HandleSlashCommand(rec, signedRequest(commandBody("onboard john ANALYST")))

	// The requester saw a 200; the operator channel is the only place the
	// lost command shows up
	assert.Equal(t, http.StatusOK, rec.Code)
	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "schedule deferred task cmd_")
	mockCommands.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestVerifySignature(t *testing.T) {
	handler := newTestHandler(&commandsservice.MockCommandsService{}, &responderservice.MockResponderService{}, tasks.NewRunner(nil), nil)

	body := commandBody("onboard john ANALYST")
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("X-Request-Timestamp", timestamp)
	req.Header.Set("X-Signature", signBody(testSigningSecret, timestamp, body))
	assert.NoError(t, handler.verifySignature(req, []byte(body)))

	// Wrong secret
	req.Header.Set("X-Signature", signBody("other_secret", timestamp, body))
	assert.ErrorIs(t, handler.verifySignature(req, []byte(body)), core.ErrUnauthorized)

	// Tampered body
	req.Header.Set("X-Signature", signBody(testSigningSecret, timestamp, body))
	assert.ErrorIs(t, handler.verifySignature(req, []byte(body+"&x=1")), core.ErrUnauthorized)

	// Missing signature header
	req.Header.Del("X-Signature")
	assert.ErrorIs(t, handler.verifySignature(req, []byte(body)), core.ErrUnauthorized)
}
