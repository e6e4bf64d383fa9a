package tg

import "strconv"

// ChatID represents a Telegram chat identifier.
// Valid types: int64 (numeric ID) or string (channel username like "@channelusername")
type ChatID = any

// Message represents a Telegram message. Only the fields the bot reads are decoded.
type Message struct {
	MessageID    int                   `json:"message_id"`
	From         *User                 `json:"from,omitempty"`
	Date         int64                 `json:"date"`
	Chat         *Chat                 `json:"chat"`
	MediaGroupID string                `json:"media_group_id,omitempty"`
	Text         string                `json:"text,omitempty"`
	Caption      string                `json:"caption,omitempty"`
	Photo        []PhotoSize           `json:"photo,omitempty"`
	Document     *Document             `json:"document,omitempty"`
	Video        *Video                `json:"video,omitempty"`
	Sticker      *Sticker              `json:"sticker,omitempty"`
	ReplyMarkup  *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// ChatIDValue returns the numeric chat id, or 0 when the chat is missing.
func (m *Message) ChatIDValue() int64 {
	if m == nil || m.Chat == nil {
		return 0
	}
	return m.Chat.ID
}

// Sig returns the (chat_id, message_id) pair used by edit and delete calls.
func (m *Message) Sig() (int64, int) {
	if m == nil {
		return 0, 0
	}
	return m.ChatIDValue(), m.MessageID
}

// IsCommand reports whether the message text starts with /name,
// optionally addressed as /name@botname.
func (m *Message) IsCommand(name string) bool {
	if m == nil || len(m.Text) < len(name)+1 || m.Text[0] != '/' {
		return false
	}
	cmd := m.Text[1:]
	for i, r := range cmd {
		if r == ' ' || r == '@' {
			cmd = cmd[:i]
			break
		}
	}
	return cmd == name
}

// LargestPhoto returns the last (largest) photo size, or nil.
func (m *Message) LargestPhoto() *PhotoSize {
	if m == nil || len(m.Photo) == 0 {
		return nil
	}
	return &m.Photo[len(m.Photo)-1]
}

// MessageID is the result of copy-style calls.
type MessageID struct {
	MessageID int `json:"message_id"`
}

// User represents a Telegram user or bot.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// PhotoSize represents one size of a photo or a thumbnail.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Document represents a general file.
type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Video represents a video file.
type Video struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// Sticker represents a sticker.
type Sticker struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Type         string `json:"type"` // "regular", "mask", "custom_emoji"
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	IsAnimated   bool   `json:"is_animated"`
	IsVideo      bool   `json:"is_video"`
	Emoji        string `json:"emoji,omitempty"`
	SetName      string `json:"set_name,omitempty"`
}

// File represents a file ready to be downloaded via FilePath.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// AddStickersURL returns the public link that installs a sticker set.
func AddStickersURL(setName string) string {
	return "https://t.me/addstickers/" + setName
}

// FormatChatID renders a numeric chat id the way rate limiter keys expect it.
func FormatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
