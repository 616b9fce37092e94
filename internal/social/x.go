package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

// XPost is one story ready for X.
type XPost struct {
	Title      string
	ArticleURL string
	Hashtags   []string
	// Image is the rendered card; nil posts text only.
	Image []byte
}

// X posts tweets with an attached media card. Requests are signed with
// OAuth 1.0a user context, which both the v1.1 media upload and v2 tweet
// endpoints accept.
type X struct {
	http      *http.Client
	uploadURL string
	tweetURL  string
}

// XCredentials holds the four OAuth 1.0a tokens.
type XCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// NewX creates a client whose HTTP transport signs every request.
func NewX(creds XCredentials) *X {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	client := config.Client(oauth1.NoContext, token)
	client.Timeout = 30 * time.Second

	return &X{
		http:      client,
		uploadURL: "https://upload.twitter.com/1.1/media/upload.json",
		tweetURL:  "https://api.twitter.com/2/tweets",
	}
}

// tweetLimit is the character budget for one post.
const tweetLimit = 280

// Publish uploads the image (when present) and posts the tweet, returning
// the tweet ID.
func (x *X) Publish(ctx context.Context, post XPost) (string, error) {
	var mediaID string
	if len(post.Image) > 0 {
		id, err := x.uploadMedia(ctx, post.Image)
		if err != nil {
			return "", err
		}
		mediaID = id
	}

	payload := map[string]any{"text": ComposeTweet(post.Title, post.ArticleURL, post.Hashtags)}
	if mediaID != "" {
		payload["media"] = map[string]any{"media_ids": []string{mediaID}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.tweetURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("post tweet: status %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode tweet response: %w", err)
	}
	return result.Data.ID, nil
}

// uploadMedia pushes the image through the v1.1 upload endpoint.
func (x *X) uploadMedia(ctx context.Context, image []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", "card.jpg")
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := x.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload media: status %d: %s", resp.StatusCode, msg)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("upload media: no media id in response")
	}
	return result.MediaIDString, nil
}

// ComposeTweet joins title, link and hashtags, trimming the title when the
// whole text would exceed the limit.
func ComposeTweet(title, articleURL string, hashtags []string) string {
	tail := ""
	if articleURL != "" {
		tail += "\n" + articleURL
	}
	if len(hashtags) > 0 {
		tail += "\n" + strings.Join(hashtags, " ")
	}

	budget := tweetLimit - len([]rune(tail))
	runes := []rune(title)
	if len(runes) > budget {
		if budget > 3 {
			title = strings.TrimSpace(string(runes[:budget-3])) + "..."
		} else {
			title = ""
		}
	}
	return title + tail
}
