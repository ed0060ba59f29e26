package enrichment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxDereferencedBytes bounds the response body read to avoid a
// malicious or oversized page stalling an enrichment pass.
const maxDereferencedBytes = 2 << 20 // 2 MiB

// maxDereferencedRunes caps the text appended to the observation's note
// before it reaches the analysis capability.
const maxDereferencedRunes = 4000

// dereferencer optionally fetches and extracts the readable content of an
// observation's address, when it looks like a web URL (SPEC_FULL domain
// stack: optional link dereferencing, feature-flagged by
// config.LinkDereferenceConfig).
type dereferencer struct {
	client *http.Client
}

func newDereferencer(timeout time.Duration) *dereferencer {
	return &dereferencer{client: &http.Client{Timeout: timeout}}
}

// fetch downloads rawURL and returns its readable-mode title and body
// text, truncated to maxDereferencedRunes. It never wraps the caller's
// context past its own timeout budget: the enrichment timeout still
// governs the overall call via ctx.
func (d *dereferencer) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDereferencedBytes))
	if err != nil {
		return "", err
	}

	u, _ := url.Parse(rawURL)

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(article.Title + "\n" + article.TextContent)

	runes := []rune(text)
	if len(runes) > maxDereferencedRunes {
		text = string(runes[:maxDereferencedRunes])
	}

	return text, nil
}
