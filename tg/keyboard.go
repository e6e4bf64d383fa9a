package tg

import "iter"

// InlineKeyboardMarkup represents an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton represents a button in an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// MaxCallbackData is the Bot API limit for callback_data, in bytes.
const MaxCallbackData = 64

// Btn creates a callback button.
func Btn(text, callbackData string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// BtnURL creates a URL button.
func BtnURL(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, URL: url}
}

// Keyboard builds inline keyboards fluently.
type Keyboard struct {
	rows [][]InlineKeyboardButton
}

// NewKeyboard creates a new keyboard builder.
func NewKeyboard() *Keyboard {
	return &Keyboard{rows: make([][]InlineKeyboardButton, 0, 4)}
}

// Row adds a row of buttons. Empty rows are skipped.
func (k *Keyboard) Row(buttons ...InlineKeyboardButton) *Keyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

// RowIf adds a row only when cond holds.
func (k *Keyboard) RowIf(cond bool, buttons ...InlineKeyboardButton) *Keyboard {
	if cond {
		return k.Row(buttons...)
	}
	return k
}

// Build returns the completed InlineKeyboardMarkup.
func (k *Keyboard) Build() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: k.rows}
}

// RowCount returns the number of rows.
func (k *Keyboard) RowCount() int {
	return len(k.rows)
}

// AllButtons returns an iterator over all buttons of a markup, row by row.
func (m *InlineKeyboardMarkup) AllButtons() iter.Seq[InlineKeyboardButton] {
	return func(yield func(InlineKeyboardButton) bool) {
		if m == nil {
			return
		}
		for _, row := range m.InlineKeyboard {
			for _, btn := range row {
				if !yield(btn) {
					return
				}
			}
		}
	}
}

// ConfirmCustom creates a confirmation keyboard with custom labels.
func ConfirmCustom(yesText, yesData, noText, noData string) *InlineKeyboardMarkup {
	return NewKeyboard().
		Row(Btn(yesText, yesData), Btn(noText, noData)).
		Build()
}
