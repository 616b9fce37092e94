package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
)

// TelegramPost is one story ready for the channel.
type TelegramPost struct {
	Title      string
	Summary    string
	Date       string
	ArticleURL string
	ImageURL   string
	Hashtags   []string
}

// Telegram posts photo messages to a channel via the Bot API.
type Telegram struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
	channel string
}

// NewTelegram creates a client. channel is the public channel name without
// the leading @, used to build message links.
func NewTelegram(token, chatID, channel string) *Telegram {
	return &Telegram{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		channel: strings.TrimPrefix(channel, "@"),
	}
}

// telegramCaptionLimit is the Bot API's cap on photo captions.
const telegramCaptionLimit = 1024

// Publish sends the story as a photo with an HTML caption and a "Read more"
// button, returning the public message URL.
func (t *Telegram) Publish(ctx context.Context, post TelegramPost) (string, error) {
	payload := map[string]any{
		"chat_id":    t.chatID,
		"photo":      post.ImageURL,
		"caption":    t.caption(post),
		"parse_mode": "HTML",
	}
	if post.ArticleURL != "" {
		payload["reply_markup"] = map[string]any{
			"inline_keyboard": [][]map[string]string{
				{{"text": "Read more", "url": post.ArticleURL}},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send telegram photo: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode telegram response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("telegram sendPhoto: %s", result.Description)
	}

	if t.channel == "" {
		return fmt.Sprintf("message %d", result.Result.MessageID), nil
	}
	return fmt.Sprintf("https://t.me/%s/%d", t.channel, result.Result.MessageID), nil
}

// caption renders the HTML caption: bold title, summary, date, hashtags.
// Overlong captions lose summary text first, then title text; the title is
// only cut when nothing else is left to give.
func (t *Telegram) caption(post TelegramPost) string {
	tags := strings.Join(post.Hashtags, " ")

	render := func(title, summary string) string {
		parts := []string{"<b>" + html.EscapeString(title) + "</b>"}
		if summary != "" {
			parts = append(parts, html.EscapeString(summary))
		}
		footer := strings.TrimSpace(post.Date + "  " + tags)
		if footer != "" {
			parts = append(parts, footer)
		}
		return strings.Join(parts, "\n\n")
	}

	title, summary := post.Title, post.Summary
	for {
		caption := render(title, summary)
		if len([]rune(caption)) <= telegramCaptionLimit {
			return caption
		}
		// Each branch strictly shrinks its text, so the loop terminates.
		if n := len([]rune(summary)); n > 1 {
			summary = shortenWords(summary, n*3/4)
		} else if summary != "" {
			summary = ""
		} else if n := len([]rune(title)); n > 1 {
			title = shortenWords(title, n*3/4)
		} else {
			return string([]rune(caption)[:telegramCaptionLimit])
		}
	}
}

// shortenWords trims text to at most max runes, ellipsis included,
// preferring a word boundary.
func shortenWords(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 1 {
		return "…"
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
