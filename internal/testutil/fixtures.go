package testutil

import "github.com/prilive-com/packbot/tg"

// Test constants for consistent test data.
const (
	// TestToken is a valid-format bot token for testing.
	TestToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"

	// TestChatID is a test chat ID.
	TestChatID = int64(123456789)

	// TestUserID is a test user ID.
	TestUserID = int64(987654321)

	// TestBotID is a test bot ID.
	TestBotID = int64(123456789)

	// TestUsername is a test username.
	TestUsername = "testuser"

	// TestBotUsername is a test bot username.
	TestBotUsername = "testbot"

	// TestChannelID is the channel the access gate checks in tests.
	TestChannelID = int64(-1001234567890)

	// TestFileID is a realistic-length sticker file id.
	TestFileID = "CAACAgIAAxkBAAIBY2VkZXJfZmlsZV9pZF9mb3JfdGVzdGluZ19wdXJwb3Nlc19vbmx5AAJ"
)

// TestUser returns a test user fixture.
func TestUser() *tg.User {
	return &tg.User{
		ID:        TestUserID,
		IsBot:     false,
		FirstName: "Test",
		LastName:  "User",
		Username:  TestUsername,
	}
}

// TestBot returns a test bot user fixture.
func TestBot() *tg.User {
	return &tg.User{
		ID:        TestBotID,
		IsBot:     true,
		FirstName: "Test Bot",
		Username:  TestBotUsername,
	}
}

// TestChat returns a test private chat fixture.
func TestChat() *tg.Chat {
	return &tg.Chat{
		ID:        TestChatID,
		Type:      "private",
		FirstName: "Test",
		LastName:  "User",
		Username:  TestUsername,
	}
}

// TestMessage returns a test message fixture.
func TestMessage(messageID int, text string) *tg.Message {
	return &tg.Message{
		MessageID: messageID,
		Date:      1234567890,
		Chat:      TestChat(),
		From:      TestUser(),
		Text:      text,
	}
}

// TestPhotoMessage returns a message carrying a photo in two sizes.
// The largest size uses fileID.
func TestPhotoMessage(messageID int, fileID string) *tg.Message {
	msg := TestMessage(messageID, "")
	msg.Photo = []tg.PhotoSize{
		{FileID: fileID + "_small", FileUniqueID: "s_" + fileID, Width: 90, Height: 90},
		{FileID: fileID, FileUniqueID: "l_" + fileID, Width: 512, Height: 512},
	}
	return msg
}

// TestMediaGroupPhoto returns a photo message belonging to a media group.
func TestMediaGroupPhoto(messageID int, groupID, fileID string) *tg.Message {
	msg := TestPhotoMessage(messageID, fileID)
	msg.MediaGroupID = groupID
	return msg
}

// TestVideoMessage returns a message carrying a video.
func TestVideoMessage(messageID int, fileID string) *tg.Message {
	msg := TestMessage(messageID, "")
	msg.Video = &tg.Video{FileID: fileID, FileUniqueID: "u_" + fileID, Width: 640, Height: 480, Duration: 5, MimeType: "video/mp4"}
	return msg
}

// TestDocumentMessage returns a message carrying a file with the given mime type.
func TestDocumentMessage(messageID int, fileID, mimeType string) *tg.Message {
	msg := TestMessage(messageID, "")
	msg.Document = &tg.Document{FileID: fileID, FileUniqueID: "u_" + fileID, FileName: "upload", MimeType: mimeType}
	return msg
}

// TestStickerMessage returns a message carrying a sticker from setName.
func TestStickerMessage(messageID int, fileID, setName string) *tg.Message {
	msg := TestMessage(messageID, "")
	msg.Sticker = &tg.Sticker{FileID: fileID, FileUniqueID: "u_" + fileID, Type: "regular", Width: 512, Height: 512, SetName: setName}
	return msg
}

// TestUpdate returns a test update fixture with a message.
func TestUpdate(updateID int, text string) tg.Update {
	return tg.Update{
		UpdateID: updateID,
		Message:  TestMessage(1, text),
	}
}

// TestUpdateWithMessage returns a test update fixture with a custom message.
func TestUpdateWithMessage(updateID int, msg *tg.Message) tg.Update {
	return tg.Update{
		UpdateID: updateID,
		Message:  msg,
	}
}

// TestCallbackQuery returns a test callback query fixture.
func TestCallbackQuery(id, data string) *tg.CallbackQuery {
	return &tg.CallbackQuery{
		ID:           id,
		From:         TestUser(),
		Message:      TestMessage(1, "Original message"),
		ChatInstance: "instance_123",
		Data:         data,
	}
}

// TestUpdateWithCallback returns a test update fixture with a callback query.
func TestUpdateWithCallback(updateID int, cbID, cbData string) tg.Update {
	return tg.Update{
		UpdateID:      updateID,
		CallbackQuery: TestCallbackQuery(cbID, cbData),
	}
}
