package curl

import (
	"net/http"
	"sort"
	"strings"

	"github.com/unkn0wn-root/netscope/internal/transaction"
)

// Command renders req as a curl invocation that sends the same request.
// Headers are emitted in sorted order so the output is stable.
func Command(req *transaction.Request) string {
	if req == nil {
		return ""
	}
	parts := []string{"curl"}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch {
	case method == "" || method == http.MethodGet && len(req.Body) == 0:
	case method == http.MethodHead && len(req.Body) == 0:
		parts = append(parts, "--head")
	case method == http.MethodPost && len(req.Body) > 0:
	default:
		parts = append(parts, "-X", method)
	}
	if req.FollowRedirects {
		parts = append(parts, "-L")
	}

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range req.Headers[name] {
			parts = append(parts, "-H", quote(name+": "+v))
		}
	}

	if len(req.Body) > 0 {
		parts = append(parts, "--data-raw", quote(string(req.Body)))
	}
	parts = append(parts, quote(req.URL))
	return strings.Join(parts, " ")
}

// quote wraps s in single quotes unless it is made of characters the shell
// never interprets.
func quote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:@%+,=", r)
}
