package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"uppf-engine/internal/claims/application"
)

func TestWebhookChannel_Send(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)
	if err := channel.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %s", gotContentType)
	}
	var payload struct {
		MsgType string `json:"msgtype"`
		Text    struct {
			Content string `json:"content"`
		} `json:"text"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if payload.MsgType != "text" || payload.Text.Content != "hello" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWebhookChannel_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)
	if err := channel.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestWebhookChannel_EmptyURL(t *testing.T) {
	channel := NewWebhookChannel("")
	if err := channel.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty url")
	}
}

type captureChannel struct {
	content string
}

func (c *captureChannel) Send(ctx context.Context, content string) error {
	_ = ctx
	c.content = content
	return nil
}

func TestAgingNotifier_Format(t *testing.T) {
	channel := &captureChannel{}
	notifier, err := NewAgingNotifier(channel, "tenant-omc")
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	err = notifier.NotifyAging(context.Background(), application.ClaimAgingAlert{
		ClaimID:    "UPPF-2026-W05-123456-001",
		WindowID:   "2026-W05",
		AmountDue:  19920,
		DaysAging:  42,
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	for _, want := range []string{
		"[UPPF Aging Alert]",
		"Tenant: tenant-omc",
		"Claim: UPPF-2026-W05-123456-001",
		"Days Outstanding: 42",
		"Amount Due: 19920.00",
	} {
		if !strings.Contains(channel.content, want) {
			t.Fatalf("alert missing %q:\n%s", want, channel.content)
		}
	}
}

func TestNewAgingNotifier_NilChannel(t *testing.T) {
	if _, err := NewAgingNotifier(nil, "tenant"); err == nil {
		t.Fatal("expected error for nil channel")
	}
}
