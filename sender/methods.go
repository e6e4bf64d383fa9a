package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/prilive-com/packbot/internal/scrub"
	"github.com/prilive-com/packbot/tg"
)

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*tg.User, error) {
	me, err := callJSONResult[tg.User](c, ctx, "getMe", struct{}{}, "")
	if err != nil {
		return nil, err
	}
	return &me, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*tg.Message, error) {
	if err := validateChatID(req.ChatID); err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, tg.NewValidationError("text", "required")
	}
	if utf8.RuneCountInString(req.Text) > c.config.MaxTextLength {
		return nil, tg.NewValidationError("text", fmt.Sprintf("exceeds %d characters", c.config.MaxTextLength))
	}

	var msg tg.Message
	if err := c.callJSON(ctx, "sendMessage", req, &msg, chatKey(req.ChatID)); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Send is a shorthand for SendMessage with functional options.
func (c *Client) Send(ctx context.Context, chatID int64, text string, opts ...SendOption) (*tg.Message, error) {
	req := SendMessageRequest{ChatID: chatID, Text: text}
	for _, opt := range opts {
		opt(&req)
	}
	return c.SendMessage(ctx, req)
}

// EditMessageText edits message text. Telegram answers with the edited message,
// or true for inline messages, so the result is not decoded.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	if err := validateChatID(req.ChatID); err != nil {
		return err
	}
	if err := validateMessageID(req.MessageID); err != nil {
		return err
	}
	return c.callJSON(ctx, "editMessageText", req, nil, chatKey(req.ChatID))
}

// EditMessageReplyMarkup replaces the inline keyboard of a message.
func (c *Client) EditMessageReplyMarkup(ctx context.Context, req EditMessageReplyMarkupRequest) error {
	if err := validateChatID(req.ChatID); err != nil {
		return err
	}
	if err := validateMessageID(req.MessageID); err != nil {
		return err
	}
	return c.callJSON(ctx, "editMessageReplyMarkup", req, nil, chatKey(req.ChatID))
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, req DeleteMessageRequest) error {
	if err := validateChatID(req.ChatID); err != nil {
		return err
	}
	if err := validateMessageID(req.MessageID); err != nil {
		return err
	}
	return c.callJSON(ctx, "deleteMessage", req, nil, chatKey(req.ChatID))
}

// AnswerCallbackQuery answers a callback query.
func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	if req.CallbackQueryID == "" {
		return tg.NewValidationError("callback_query_id", "required")
	}
	return c.callJSON(ctx, "answerCallbackQuery", req, nil, "")
}

// Answer answers a callback query with options.
func (c *Client) Answer(ctx context.Context, cb *tg.CallbackQuery, opts ...AnswerOption) error {
	req := AnswerCallbackQueryRequest{CallbackQueryID: cb.ID}
	for _, opt := range opts {
		opt(&req)
	}
	return c.AnswerCallbackQuery(ctx, req)
}

// GetChatMember returns a user's membership in a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID tg.ChatID, userID int64) (tg.ChatMember, error) {
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.callJSON(ctx, "getChatMember", GetChatMemberRequest{ChatID: chatID, UserID: userID}, &raw, ""); err != nil {
		return nil, err
	}
	return tg.UnmarshalChatMember(raw)
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*tg.File, error) {
	if fileID == "" {
		return nil, tg.NewValidationError("file_id", "required")
	}
	f, err := callJSONResult[tg.File](c, ctx, "getFile", GetFileRequest{FileID: fileID}, "")
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile fetches the content behind a tg.File path.
// Responses larger than MaxDownloadSize fail with ErrResponseTooLarge.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	if filePath == "" {
		return nil, tg.NewValidationError("file_path", "required")
	}
	if strings.Contains(filePath, "..") || strings.HasPrefix(filePath, "/") {
		return nil, tg.ErrPathTraversal
	}
	if err := c.limiter.Wait(ctx, ""); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.config.BaseURL, c.config.Token.Value(), filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", scrub.TokenFromError(err, c.config.Token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", scrub.TokenFromError(err, c.config.Token))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, tg.NewAPIError("downloadFile", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limit := c.config.MaxDownloadSize
	if limit <= 0 {
		limit = DefaultConfig().MaxDownloadSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, tg.ErrResponseTooLarge
	}
	return data, nil
}

// Fetch resolves fileID and downloads it in one step.
func (c *Client) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return c.DownloadFile(ctx, f.FilePath)
}
