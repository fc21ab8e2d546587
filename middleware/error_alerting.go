package middleware

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type AlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
}

// ErrorAlertMiddleware recovers panics in the HTTP chain and forwards
// distinct errors to an operator webhook. No panic ever crashes the process
// or leaks a stack trace to the caller.
type ErrorAlertMiddleware struct {
	config        AlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration // prevent spam
}

func NewErrorAlertMiddleware(config AlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute,
	}
}

// HTTPMiddleware wraps the whole handler chain
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				errorMsg := fmt.Sprintf("HTTP %s %s: PANIC - %v", r.Method, r.URL.Path, rec)
				log.Printf("❌ %s", errorMsg)
				m.alert(errorMsg)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// NotifyError reports a non-panic error through the same deduplicated
// alerting path. Used for silently-lost commands and other conditions the
// requester will never see.
func (m *ErrorAlertMiddleware) NotifyError(context string, err error) {
	errorMsg := fmt.Sprintf("%s: %v", context, err)
	log.Printf("❌ %s", errorMsg)
	m.alert(errorMsg)
}

func (m *ErrorAlertMiddleware) alert(errorMsg string) {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	if lastAlert, exists := m.alertedErrors[hash]; exists && time.Since(lastAlert) < m.alertCooldown {
		m.mutex.Unlock()
		return
	}
	m.alertedErrors[hash] = time.Now()
	m.mutex.Unlock()

	go m.sendWebhookAlert(errorMsg)
}

func (m *ErrorAlertMiddleware) sendWebhookAlert(errorMsg string) {
	if m.config.WebhookURL == "" {
		return // alerts disabled
	}

	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type":  "plain_text",
					"text":  fmt.Sprintf("🚨 [%s] %s Error Alert", m.config.Environment, m.config.AppName),
					"emoji": true,
				},
			},
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Error:*\n```%s```", errorMsg),
				},
			},
		},
	}

	payloadBytes, _ := json.Marshal(payload)

	resp, err := http.Post(m.config.WebhookURL, "application/json",
		strings.NewReader(string(payloadBytes)))
	if err != nil {
		log.Printf("❌ Failed to send error alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ Error alert failed with status: %d", resp.StatusCode)
	}
}
