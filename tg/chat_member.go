package tg

import (
	"encoding/json"
	"fmt"
)

// ChatMember represents a member of a chat.
// This is a sealed interface. The concrete types are:
//   - ChatMemberOwner
//   - ChatMemberAdministrator
//   - ChatMemberMember
//   - ChatMemberRestricted
//   - ChatMemberLeft
//   - ChatMemberBanned
type ChatMember interface {
	chatMember()

	// Status returns the member's status string as sent by Telegram.
	Status() string

	GetUser() *User
}

type chatMemberBase struct {
	User *User `json:"user"`
}

func (b chatMemberBase) GetUser() *User { return b.User }

// ChatMemberOwner represents a chat owner.
type ChatMemberOwner struct {
	chatMemberBase
	IsAnonymous bool `json:"is_anonymous"`
}

func (ChatMemberOwner) chatMember()    {}
func (ChatMemberOwner) Status() string { return "creator" }

// ChatMemberAdministrator represents a chat administrator.
type ChatMemberAdministrator struct {
	chatMemberBase
	IsAnonymous bool `json:"is_anonymous"`
}

func (ChatMemberAdministrator) chatMember()    {}
func (ChatMemberAdministrator) Status() string { return "administrator" }

// ChatMemberMember represents a regular chat member.
type ChatMemberMember struct {
	chatMemberBase
	UntilDate int64 `json:"until_date,omitempty"`
}

func (ChatMemberMember) chatMember()    {}
func (ChatMemberMember) Status() string { return "member" }

// ChatMemberRestricted represents a restricted user. IsMember tells whether
// the user is still in the chat.
type ChatMemberRestricted struct {
	chatMemberBase
	IsMember  bool  `json:"is_member"`
	UntilDate int64 `json:"until_date"`
}

func (ChatMemberRestricted) chatMember()    {}
func (ChatMemberRestricted) Status() string { return "restricted" }

// ChatMemberLeft represents a user who left the chat.
type ChatMemberLeft struct {
	chatMemberBase
}

func (ChatMemberLeft) chatMember()    {}
func (ChatMemberLeft) Status() string { return "left" }

// ChatMemberBanned represents a banned user.
type ChatMemberBanned struct {
	chatMemberBase
	UntilDate int64 `json:"until_date"`
}

func (ChatMemberBanned) chatMember()    {}
func (ChatMemberBanned) Status() string { return "kicked" }

// UnmarshalChatMember deserializes JSON into the correct ChatMember concrete type.
func UnmarshalChatMember(data []byte) (ChatMember, error) {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to probe chat member status: %w", err)
	}

	var result ChatMember
	var err error

	switch probe.Status {
	case "creator":
		var m ChatMemberOwner
		err = json.Unmarshal(data, &m)
		result = m
	case "administrator":
		var m ChatMemberAdministrator
		err = json.Unmarshal(data, &m)
		result = m
	case "member":
		var m ChatMemberMember
		err = json.Unmarshal(data, &m)
		result = m
	case "restricted":
		var m ChatMemberRestricted
		err = json.Unmarshal(data, &m)
		result = m
	case "left":
		var m ChatMemberLeft
		err = json.Unmarshal(data, &m)
		result = m
	case "kicked", "banned":
		var m ChatMemberBanned
		err = json.Unmarshal(data, &m)
		result = m
	default:
		return nil, fmt.Errorf("unknown chat member status: %q", probe.Status)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat member (%s): %w", probe.Status, err)
	}
	return result, nil
}

// IsInChat reports whether the member currently belongs to the chat.
// Left and banned users do not; restricted users do only while IsMember is set.
func IsInChat(m ChatMember) bool {
	switch v := m.(type) {
	case ChatMemberOwner, ChatMemberAdministrator, ChatMemberMember:
		return true
	case ChatMemberRestricted:
		return v.IsMember
	default:
		return false
	}
}
