package telegramapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// RequestError is a non-OK Bot API answer.
type RequestError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
	Body        string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "telegram request failed"
	}
	prefix := "telegram"
	if e.Method != "" {
		prefix += " " + e.Method
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("%s http %d: %s", prefix, e.StatusCode, desc)
		}
		return prefix + ": " + desc
	}
	body := strings.TrimSpace(e.Body)
	switch {
	case e.StatusCode > 0 && body != "":
		return fmt.Sprintf("%s http %d: %s", prefix, e.StatusCode, body)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s http %d", prefix, e.StatusCode)
	case body != "":
		return prefix + ": " + body
	default:
		return prefix + ": request failed"
	}
}

// IsPollTimeoutError reports whether a long poll ended without updates
// because a client or server deadline passed.
func IsPollTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

func IsMarkdownParseError(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		desc := strings.ToLower(reqErr.Description)
		if strings.Contains(desc, "can't parse entities") || strings.Contains(desc, "can't parse entity") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") || strings.Contains(msg, "can't parse entity")
}
