package sender

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prilive-com/packbot/tg"
)

// Sticker formats accepted by InputSticker.Format.
const (
	FormatStatic = "static"
	FormatVideo  = "video"
)

// Sticker set types accepted by CreateNewStickerSetRequest.StickerType.
const (
	StickerTypeRegular     = "regular"
	StickerTypeCustomEmoji = "custom_emoji"
)

// MaxStickersPerCreate bounds the initial sticker list of createNewStickerSet.
const MaxStickersPerCreate = 50

// InputSticker represents a sticker to be uploaded to a sticker set.
type InputSticker struct {
	Sticker   InputFile `json:"-"`      // Handled by multipart encoder
	Format    string    `json:"format"` // "static", "video"
	EmojiList []string  `json:"emoji_list"`
	Keywords  []string  `json:"keywords,omitempty"`
}

// CreateNewStickerSetRequest represents a createNewStickerSet request.
type CreateNewStickerSetRequest struct {
	UserID      int64          `json:"user_id"`
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Stickers    []InputSticker `json:"-"`                      // Handled specially
	StickerType string         `json:"sticker_type,omitempty"` // "regular", "custom_emoji"
}

// AddStickerToSetRequest represents an addStickerToSet request.
type AddStickerToSetRequest struct {
	UserID  int64        `json:"user_id"`
	Name    string       `json:"name"`
	Sticker InputSticker `json:"-"` // Handled specially
}

// DeleteStickerFromSetRequest represents a deleteStickerFromSet request.
type DeleteStickerFromSetRequest struct {
	Sticker string `json:"sticker"` // file_id
}

// CreateNewStickerSet creates a new sticker set owned by a user.
func (c *Client) CreateNewStickerSet(ctx context.Context, req CreateNewStickerSetRequest) error {
	if err := validateUserID(req.UserID); err != nil {
		return err
	}
	if req.Name == "" {
		return tg.NewValidationError("name", "required")
	}
	if req.Title == "" {
		return tg.NewValidationError("title", "required")
	}
	if len(req.Stickers) == 0 {
		return tg.NewValidationError("stickers", "at least one sticker required")
	}
	if len(req.Stickers) > MaxStickersPerCreate {
		return tg.NewValidationError("stickers", fmt.Sprintf("at most %d stickers allowed", MaxStickersPerCreate))
	}

	payload, err := buildStickerSetPayload(req)
	if err != nil {
		return err
	}
	return c.callJSON(ctx, "createNewStickerSet", payload, nil, "")
}

// AddStickerToSet adds a new sticker to an existing sticker set.
func (c *Client) AddStickerToSet(ctx context.Context, req AddStickerToSetRequest) error {
	if err := validateUserID(req.UserID); err != nil {
		return err
	}
	if req.Name == "" {
		return tg.NewValidationError("name", "required")
	}

	payload, err := buildSingleStickerPayload(req.UserID, req.Name, req.Sticker)
	if err != nil {
		return err
	}
	return c.callJSON(ctx, "addStickerToSet", payload, nil, "")
}

// DeleteStickerFromSet deletes a sticker from the set created by the bot.
func (c *Client) DeleteStickerFromSet(ctx context.Context, sticker string) error {
	if sticker == "" {
		return tg.NewValidationError("sticker", "required")
	}
	return c.callJSON(ctx, "deleteStickerFromSet", DeleteStickerFromSetRequest{Sticker: sticker}, nil, "")
}

// inputStickerJSON is the JSON representation of InputSticker for the API.
type inputStickerJSON struct {
	Sticker   string   `json:"sticker"`
	Format    string   `json:"format"`
	EmojiList []string `json:"emoji_list"`
	Keywords  []string `json:"keywords,omitempty"`
}

// resolveInputSticker converts an InputSticker to its JSON representation,
// resolving InputFile to a FileID or an attach:// reference.
// Returns the JSON struct and an optional FilePart for uploads.
func resolveInputSticker(s InputSticker, attachName string) (inputStickerJSON, *FilePart, error) {
	if s.Format != FormatStatic && s.Format != FormatVideo {
		return inputStickerJSON{}, nil, tg.NewValidationError("format", fmt.Sprintf("unsupported %q", s.Format))
	}
	if err := validateEmojiList(s.EmojiList); err != nil {
		return inputStickerJSON{}, nil, err
	}

	sj := inputStickerJSON{
		Format:    s.Format,
		EmojiList: s.EmojiList,
		Keywords:  s.Keywords,
	}

	switch {
	case s.Sticker.FileID != "":
		sj.Sticker = s.Sticker.FileID
		return sj, nil, nil
	case s.Sticker.IsUpload():
		sj.Sticker = "attach://" + attachName
		fp := &FilePart{
			FieldName: attachName,
			FileName:  s.Sticker.FileName,
			Reader:    s.Sticker.OpenReader(),
		}
		return sj, fp, nil
	default:
		return sj, nil, tg.NewValidationError("sticker", "InputFile must have FileID or Source set")
	}
}

// buildStickerSetPayload builds a multipart-compatible request for createNewStickerSet.
// InputSticker files are encoded as attach:// references.
func buildStickerSetPayload(r CreateNewStickerSetRequest) (*stickerSetRequest, error) {
	req := &stickerSetRequest{
		UserID:      r.UserID,
		Name:        r.Name,
		Title:       r.Title,
		StickerType: r.StickerType,
	}

	stickerJSONs := make([]inputStickerJSON, 0, len(r.Stickers))
	for i, s := range r.Stickers {
		sj, fp, err := resolveInputSticker(s, fmt.Sprintf("sticker_file_%d", i))
		if err != nil {
			return nil, fmt.Errorf("sticker[%d]: %w", i, err)
		}
		if fp != nil {
			req.AttachedFiles = append(req.AttachedFiles, *fp)
		}
		stickerJSONs = append(stickerJSONs, sj)
	}

	data, err := json.Marshal(stickerJSONs)
	if err != nil {
		return nil, fmt.Errorf("marshal stickers: %w", err)
	}
	req.StickersJSON = string(data)

	return req, nil
}

// buildSingleStickerPayload builds a payload for addStickerToSet.
func buildSingleStickerPayload(userID int64, name string, sticker InputSticker) (*singleStickerRequest, error) {
	req := &singleStickerRequest{
		UserID: userID,
		Name:   name,
	}

	sj, fp, err := resolveInputSticker(sticker, "sticker_file_0")
	if err != nil {
		return nil, fmt.Errorf("sticker: %w", err)
	}
	if fp != nil {
		req.AttachedFiles = append(req.AttachedFiles, *fp)
	}

	data, err := json.Marshal(sj)
	if err != nil {
		return nil, fmt.Errorf("marshal sticker: %w", err)
	}
	req.StickerJSON = string(data)

	return req, nil
}

// stickerSetRequest is the internal payload for createNewStickerSet.
// The stickers array is pre-serialized as JSON string, and files are attached separately.
type stickerSetRequest struct {
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	Title         string     `json:"title"`
	StickerType   string     `json:"sticker_type,omitempty"`
	StickersJSON  string     `json:"stickers"`              // Pre-serialized JSON array
	AttachedFiles []FilePart `json:"_file_parts,omitempty"` // Picked up by multipart builder
}

// singleStickerRequest is the internal payload for addStickerToSet.
type singleStickerRequest struct {
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	StickerJSON   string     `json:"sticker"`               // Pre-serialized JSON object
	AttachedFiles []FilePart `json:"_file_parts,omitempty"` // Picked up by multipart builder
}
