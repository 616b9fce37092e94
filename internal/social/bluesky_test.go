package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBluesky_PublishWithImage(t *testing.T) {
	t.Parallel()

	var recordBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			fmt.Fprint(w, `{"accessJwt":"jwt-1","did":"did:plc:abc"}`)
		case "/xrpc/com.atproto.repo.uploadBlob":
			assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, []byte{0xff, 0xd8, 0x01}, body)
			fmt.Fprint(w, `{"blob":{"$type":"blob","ref":{"$link":"bafy123"},"mimeType":"image/jpeg","size":3}}`)
		case "/xrpc/com.atproto.repo.createRecord":
			assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&recordBody))
			fmt.Fprint(w, `{"uri":"at://did:plc:abc/app.bsky.feed.post/3kxyz"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	b := NewBluesky(srv.URL, "news.example.bsky.social", "app-pass")

	url, err := b.Publish(context.Background(), BlueskyPost{
		Title:      "Big story",
		ArticleURL: "https://news.example/story",
		Hashtags:   []string{"#News"},
		Image:      []byte{0xff, 0xd8, 0x01},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://bsky.app/profile/news.example.bsky.social/post/3kxyz", url)
	assert.Equal(t, "did:plc:abc", recordBody["repo"])
	assert.Equal(t, "app.bsky.feed.post", recordBody["collection"])

	record, _ := recordBody["record"].(map[string]any)
	require.NotNil(t, record)
	text, _ := record["text"].(string)
	assert.Contains(t, text, "Big story")
	assert.Contains(t, text, "https://news.example/story")
	assert.NotNil(t, record["embed"])
}

func TestBluesky_SessionReused(t *testing.T) {
	t.Parallel()

	sessions := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			sessions++
			fmt.Fprint(w, `{"accessJwt":"jwt-1","did":"did:plc:abc"}`)
		case "/xrpc/com.atproto.repo.createRecord":
			fmt.Fprint(w, `{"uri":"at://did:plc:abc/app.bsky.feed.post/3k1"}`)
		}
	}))
	t.Cleanup(srv.Close)

	b := NewBluesky(srv.URL, "h.bsky.social", "pass")

	for i := 0; i < 2; i++ {
		_, err := b.Publish(context.Background(), BlueskyPost{Title: "T"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, sessions)
}

func TestBluesky_LoginFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"AuthenticationRequired"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	b := NewBluesky(srv.URL, "h", "bad")
	_, err := b.Publish(context.Background(), BlueskyPost{Title: "T"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bluesky login")
}

func TestComposeBlueskyText_Limit(t *testing.T) {
	t.Parallel()

	long := ""
	for i := 0; i < 60; i++ {
		long += "words "
	}
	text := composeBlueskyText(BlueskyPost{
		Title:      long,
		ArticleURL: "https://news.example/s",
		Hashtags:   []string{"#A", "#B"},
	})

	assert.LessOrEqual(t, len([]rune(text)), 300)
	assert.Contains(t, text, "https://news.example/s")
}
