// Package outputfmt scrubs error text before it reaches logs or chats.
package outputfmt

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
)

const redacted = "[redacted]"

var (
	urlInTextRE    = regexp.MustCompile(`https?://[^\s"'<>]+`)
	botTokenPathRE = regexp.MustCompile(`/bot[0-9]+:[A-Za-z0-9_-]+`)

	sensitiveKeyParts = []string{"apikey", "authorization", "token", "secret", "password", "cookie"}

	secrets atomic.Pointer[[]string]
)

// SetSecrets registers literal values, such as configured tokens, that are
// masked wherever they appear. It replaces any earlier registration.
func SetSecrets(values ...string) {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); len(v) >= 4 {
			out = append(out, v)
		}
	}
	// Longest first so a secret containing another is masked whole.
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	secrets.Store(&out)
}

// FormatErrorForDisplay returns err's text with URL hosts, Bot API tokens,
// sensitive query values and registered secrets masked.
func FormatErrorForDisplay(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeErrorText(err.Error())
}

func SanitizeErrorText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if list := secrets.Load(); list != nil {
		for _, s := range *list {
			raw = strings.ReplaceAll(raw, s, redacted)
		}
	}
	raw = urlInTextRE.ReplaceAllStringFunc(raw, stripURLHost)
	return botTokenPathRE.ReplaceAllString(raw, "/bot"+redacted)
}

// stripURLHost keeps the path, query and fragment of an absolute URL.
func stripURLHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	var b strings.Builder
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(path)
	if q := u.Query(); len(q) > 0 {
		for k := range q {
			if sensitiveQueryKey(k) {
				q.Set(k, redacted)
			}
		}
		b.WriteString("?" + q.Encode())
	}
	if frag := u.EscapedFragment(); frag != "" {
		b.WriteString("#" + frag)
	}
	return b.String()
}

func sensitiveQueryKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer("-", "", "_", "").Replace(k)
	if k == "" {
		return false
	}
	if k == "key" {
		return true
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}
