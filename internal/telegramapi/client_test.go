package telegramapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func decodeSend(t *testing.T, r *http.Request) SendMessageRequest {
	t.Helper()
	raw, _ := io.ReadAll(r.Body)
	var req SendMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return req
}

func TestSendTextMarkdownFallsBackToPlain(t *testing.T) {
	var reqs []SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/botTOKEN/sendMessage") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		reqs = append(reqs, decodeSend(t, r))
		w.Header().Set("Content-Type", "application/json")
		if len(reqs) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "TOKEN", nil)
	if err := c.SendText(context.Background(), 7, "a-b", `*a\-b*`, true, 3); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("send attempts = %d, want 2", len(reqs))
	}
	if reqs[0].ParseMode != "MarkdownV2" || reqs[0].Text != `*a\-b*` || reqs[0].ReplyToMessageID != 3 {
		t.Fatalf("first attempt = %+v", reqs[0])
	}
	if reqs[1].ParseMode != "" || reqs[1].Text != "a-b" || reqs[1].ReplyToMessageID != 3 {
		t.Fatalf("fallback attempt = %+v", reqs[1])
	}
}

func TestSendTextLongMarkdownGoesPlain(t *testing.T) {
	var reqs []SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs = append(reqs, decodeSend(t, r))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	long := strings.Repeat("x", maxMessageRunes+1)
	if err := New(srv.Client(), srv.URL, "TOKEN", nil).SendText(context.Background(), 7, long, "*"+long+"*", true, 0); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("send attempts = %d, want 2 plain chunks", len(reqs))
	}
	for i, req := range reqs {
		if req.ParseMode != "" {
			t.Fatalf("chunk %d parse mode = %q, want plain", i, req.ParseMode)
		}
	}
}

func TestSendTextPlainErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	err := New(srv.Client(), srv.URL, "TOKEN", nil).SendText(context.Background(), 7, "hi", "", true, 0)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("SendText() error = %v, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusForbidden || reqErr.Method != "sendMessage" {
		t.Fatalf("RequestError = %+v", reqErr)
	}
}

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req getUpdatesRequest
		_ = json.Unmarshal(raw, &req)
		if req.Offset != 10 || req.Timeout != 1 {
			t.Fatalf("getUpdates request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"from":{"id":9,"first_name":"A"},"sticker":{"file_id":"F","file_unique_id":"U"}}},
			{"update_id":12,"message":{"message_id":2,"chat":{"id":5,"type":"private"},"text":"hi"}}
		]}`))
	}))
	defer srv.Close()

	updates, next, err := New(srv.Client(), srv.URL, "TOKEN", nil).GetUpdates(context.Background(), 10, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if len(updates) != 2 || next != 13 {
		t.Fatalf("GetUpdates() = %d updates, next %d; want 2, 13", len(updates), next)
	}
	if updates[0].Message.Sticker == nil || updates[0].Message.Sticker.FileUniqueID != "U" {
		t.Fatalf("sticker not decoded: %+v", updates[0].Message)
	}
}

func TestChatMemberStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getChatMember") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"status":"creator","user":{"id":9}}}`))
	}))
	defer srv.Close()

	status, err := New(srv.Client(), srv.URL, "TOKEN", nil).ChatMemberStatus(context.Background(), -100, 9)
	if err != nil || status != "creator" {
		t.Fatalf("ChatMemberStatus() = (%q, %v), want creator", status, err)
	}
}

func TestSplitRunes(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("ب", 10) + "\n" + strings.Repeat("ج", 10)
	got := splitRunes(text, 15)
	if len(got) != 2 || got[0] != strings.Repeat("ب", 10) || got[1] != strings.Repeat("ج", 10) {
		t.Fatalf("splitRunes() = %q", got)
	}
	if got := splitRunes("short", 15); len(got) != 1 {
		t.Fatalf("splitRunes(short) = %q", got)
	}
}

func TestIsPollTimeoutError(t *testing.T) {
	t.Parallel()

	if !IsPollTimeoutError(context.DeadlineExceeded) {
		t.Fatalf("IsPollTimeoutError(deadline) = false")
	}
	if IsPollTimeoutError(errors.New("connection refused")) {
		t.Fatalf("IsPollTimeoutError(refused) = true")
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	if got := DisplayName(&User{FirstName: "Ali", LastName: "H"}); got != "Ali H" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := DisplayName(&User{Username: "ali"}); got != "@ali" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := DisplayName(nil); got != "" {
		t.Fatalf("DisplayName(nil) = %q", got)
	}
}
