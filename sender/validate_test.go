package sender

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prilive-com/packbot/tg"
)

func TestValidateChatID(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
		errMsg  string
	}{
		{"valid int64", int64(123456), false, ""},
		{"valid negative int64", int64(-1001234567890), false, ""},
		{"valid int", int(123456), false, ""},
		{"valid username", "@testchannel", false, ""},
		{"zero int64", int64(0), true, "cannot be zero"},
		{"zero int", int(0), true, "cannot be zero"},
		{"empty string", "", true, "cannot be empty"},
		{"nil", nil, true, "is required"},
		{"invalid type float", 123.456, true, "must be int64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChatID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, validateUserID(123456))
	assert.Error(t, validateUserID(0))
	assert.Error(t, validateUserID(-1))

	var vErr *tg.ValidationError
	assert.ErrorAs(t, validateUserID(0), &vErr)
	assert.Equal(t, "user_id", vErr.Field)
}

func TestValidateMessageID(t *testing.T) {
	assert.NoError(t, validateMessageID(1))
	assert.Error(t, validateMessageID(0))
}

func TestValidateEmojiList(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantErr bool
	}{
		{"single", []string{"🙂"}, false},
		{"empty", nil, true},
		{"blank item", []string{"🙂", ""}, true},
		{"too many", make([]string, 21), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmojiList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
