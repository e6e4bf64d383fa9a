// Package testutil provides testing utilities for packbot.
//
// This package is intended for internal testing only and should not be imported
// by external packages.
//
// # Mock Telegram Server
//
// MockTelegramServer provides a mock Telegram Bot API server for testing:
//
//	server := testutil.NewMockServer(t)
//	server.OnAPI("sendMessage", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyMessage(w, 123)
//	})
//	server.OnFile("photos/file_1.jpg", pngBytes)
//	client := testutil.NewTestClient(t, server.BaseURL())
//
// # Request Capture
//
// All requests are automatically captured and can be inspected:
//
//	cap := server.LastCapture()
//	cap.AssertMethod(t, "POST")
//	cap.AssertJSONField(t, "chat_id", float64(123))
//	name := cap.MultipartField(t, "name") // sticker uploads
//
// # Fake Sleeper
//
// FakeSleeper implements resilience.Sleeper and records calls without sleeping:
//
//	sleeper := &testutil.FakeSleeper{}
//	assert.Equal(t, 2*time.Second, sleeper.LastCall())
//
// # Test Fixtures
//
// Common test data is available:
//
//	testutil.TestToken                     // Valid bot token format
//	testutil.TestUser()                    // Test user fixture
//	testutil.TestPhotoMessage(1, "file_1") // Photo message fixture
//	testutil.TestMediaGroupPhoto(2, "g1", "file_2")
package testutil
