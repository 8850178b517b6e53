package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTelegramURL = "https://api.telegram.org"

// TelegramSender sends messages via Telegram Bot API.
type TelegramSender struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramSender creates a new Telegram sender. An empty baseURL uses the
// public Bot API.
func NewTelegramSender(botToken, chatID, baseURL string) *TelegramSender {
	if baseURL == "" {
		baseURL = defaultTelegramURL
	}
	return &TelegramSender{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Send delivers the alert as an HTML message to the configured chat.
func (t *TelegramSender) Send(ctx context.Context, alert Alert) error {
	return t.SendMessage(ctx, FormatHTML(alert))
}

// SendMessage sends a raw HTML message to the configured chat.
func (t *TelegramSender) SendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := telegramSendRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if !tgResp.OK {
		return fmt.Errorf("telegram API error: %s", tgResp.Description)
	}

	return nil
}

// FormatHTML renders an alert using the tags Telegram accepts.
func FormatHTML(alert Alert) string {
	var sb strings.Builder
	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(alert.Title))
	sb.WriteString("</b>\n")
	sb.WriteString(html.EscapeString(alert.Body))
	if due := alert.Payload["next_due"]; due != "" {
		sb.WriteString("\n<i>Due ")
		sb.WriteString(html.EscapeString(due))
		sb.WriteString("</i>")
	}
	if id := alert.ReminderID; id != "" {
		sb.WriteString("\n<code>plantcare done ")
		sb.WriteString(html.EscapeString(shortID(id)))
		sb.WriteString("</code>")
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
