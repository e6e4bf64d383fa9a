package tg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalChatMember_AllStatuses(t *testing.T) {
	tests := []struct {
		status   string
		extra    map[string]any
		wantType string
		inChat   bool
	}{
		{"creator", nil, "creator", true},
		{"administrator", nil, "administrator", true},
		{"member", nil, "member", true},
		{"restricted", map[string]any{"is_member": true}, "restricted", true},
		{"restricted", map[string]any{"is_member": false}, "restricted", false},
		{"left", nil, "left", false},
		{"kicked", nil, "kicked", false},
		{"banned", nil, "kicked", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			payload := map[string]any{
				"status": tt.status,
				"user":   map[string]any{"id": 123, "first_name": "Test", "is_bot": false},
			}
			for k, v := range tt.extra {
				payload[k] = v
			}
			data, err := json.Marshal(payload)
			require.NoError(t, err)

			member, err := UnmarshalChatMember(data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, member.Status())
			assert.Equal(t, int64(123), member.GetUser().ID)
			assert.Equal(t, tt.inChat, IsInChat(member))
		})
	}
}

func TestUnmarshalChatMember_UnknownStatus(t *testing.T) {
	data := []byte(`{"status":"unknown","user":{"id":1,"first_name":"X","is_bot":false}}`)
	_, err := UnmarshalChatMember(data)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chat member status")
}

func TestUnmarshalChatMember_InvalidJSON(t *testing.T) {
	_, err := UnmarshalChatMember([]byte(`{invalid`))
	assert.Error(t, err)
}
