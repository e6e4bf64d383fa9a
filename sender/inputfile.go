package sender

import (
	"bytes"
	"encoding/json"
	"io"
)

// MaxUploadSize is the maximum file size for Bot API uploads (50MB).
const MaxUploadSize = 50 * 1024 * 1024

// InputFile represents a sticker file to upload or reference.
// Use one of the constructors: FromBytes, FromFileID.
type InputFile struct {
	// FileID references an existing file on Telegram servers.
	FileID string

	// Source is a factory that returns a fresh io.Reader for each attempt,
	// so the same InputFile can be sent again after a rate-limited attempt.
	Source func() io.Reader

	// FileName is required when Source is set.
	FileName string
}

// FromBytes creates a resendable InputFile from in-memory bytes.
func FromBytes(data []byte, filename string) InputFile {
	return InputFile{
		Source: func() io.Reader {
			return bytes.NewReader(data)
		},
		FileName: filename,
	}
}

// FromFileID creates an InputFile referencing an existing Telegram file.
func FromFileID(fileID string) InputFile {
	return InputFile{FileID: fileID}
}

// IsUpload returns true if this InputFile requires upload.
func (f InputFile) IsUpload() bool {
	return f.Source != nil
}

// IsEmpty returns true if the InputFile has no value set.
func (f InputFile) IsEmpty() bool {
	return f.FileID == "" && f.Source == nil
}

// OpenReader returns a fresh reader for the file content, or nil for a
// file id reference.
func (f InputFile) OpenReader() io.Reader {
	if f.Source == nil {
		return nil
	}
	return f.Source()
}

// MarshalJSON returns the FileID for JSON encoding.
// Uploads are sent as multipart parts and encode as an empty string.
func (f InputFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.FileID)
}
