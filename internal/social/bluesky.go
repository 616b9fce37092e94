package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BlueskyPost is one story ready for Bluesky.
type BlueskyPost struct {
	Title      string
	ArticleURL string
	Hashtags   []string
	// Image is the rendered card; nil posts text only.
	Image []byte
}

// Bluesky talks XRPC to an AT Protocol PDS. A session is created lazily on
// first publish and reused until the server rejects it.
type Bluesky struct {
	http     *http.Client
	host     string
	handle   string
	password string

	accessJwt string
	did       string
}

// NewBluesky creates a client for the given account. host is the PDS base
// URL, normally https://bsky.social.
func NewBluesky(host, handle, password string) *Bluesky {
	return &Bluesky{
		http:     &http.Client{Timeout: 30 * time.Second},
		host:     strings.TrimRight(host, "/"),
		handle:   handle,
		password: password,
	}
}

// blueskyGraphemeLimit is the post length cap.
const blueskyGraphemeLimit = 300

// Publish uploads the image, creates the post record and returns the public
// bsky.app URL.
func (b *Bluesky) Publish(ctx context.Context, post BlueskyPost) (string, error) {
	if b.accessJwt == "" {
		if err := b.createSession(ctx); err != nil {
			return "", err
		}
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      composeBlueskyText(post),
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if len(post.Image) > 0 {
		blob, err := b.uploadBlob(ctx, post.Image)
		if err != nil {
			return "", err
		}
		record["embed"] = map[string]any{
			"$type": "app.bsky.embed.images",
			"images": []map[string]any{
				{"alt": post.Title, "image": blob},
			},
		}
	}

	var result struct {
		URI string `json:"uri"`
	}
	err := b.xrpc(ctx, "com.atproto.repo.createRecord", map[string]any{
		"repo":       b.did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}, &result)
	if err != nil {
		return "", err
	}

	// at://did:plc:xxx/app.bsky.feed.post/<rkey> -> public URL
	parts := strings.Split(result.URI, "/")
	rkey := parts[len(parts)-1]
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", b.handle, rkey), nil
}

func (b *Bluesky) createSession(ctx context.Context) error {
	var result struct {
		AccessJwt string `json:"accessJwt"`
		Did       string `json:"did"`
	}
	err := b.xrpc(ctx, "com.atproto.server.createSession", map[string]any{
		"identifier": b.handle,
		"password":   b.password,
	}, &result)
	if err != nil {
		return fmt.Errorf("bluesky login: %w", err)
	}
	b.accessJwt = result.AccessJwt
	b.did = result.Did
	return nil
}

func (b *Bluesky) uploadBlob(ctx context.Context, image []byte) (json.RawMessage, error) {
	url := b.host + "/xrpc/com.atproto.repo.uploadBlob"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Authorization", "Bearer "+b.accessJwt)

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upload blob: status %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode blob response: %w", err)
	}
	return result.Blob, nil
}

// xrpc posts a JSON procedure call and decodes the response into out.
func (b *Bluesky) xrpc(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	url := b.host + "/xrpc/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+b.accessJwt)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// composeBlueskyText fits title, link and hashtags into the post limit.
func composeBlueskyText(post BlueskyPost) string {
	tail := ""
	if post.ArticleURL != "" {
		tail += "\n" + post.ArticleURL
	}
	if len(post.Hashtags) > 0 {
		tail += "\n" + strings.Join(post.Hashtags, " ")
	}

	budget := blueskyGraphemeLimit - len([]rune(tail))
	runes := []rune(post.Title)
	title := post.Title
	if len(runes) > budget {
		if budget > 3 {
			title = strings.TrimSpace(string(runes[:budget-3])) + "..."
		} else {
			title = ""
		}
	}
	return title + tail
}
