package sender

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
)

// FilePart represents a file to be uploaded via multipart.
type FilePart struct {
	FieldName string    // e.g., "sticker_file_0"
	FileName  string    // e.g., "sticker.png"
	Reader    io.Reader // File content
}

// MultipartRequest represents a request with files and parameters.
type MultipartRequest struct {
	Files  []FilePart        // Explicit file parts
	Params map[string]string // String-encoded parameters
}

// MultipartEncoder encodes requests as multipart/form-data.
type MultipartEncoder struct {
	w *multipart.Writer
}

// NewMultipartEncoder creates a new multipart encoder.
func NewMultipartEncoder(w io.Writer) *MultipartEncoder {
	return &MultipartEncoder{
		w: multipart.NewWriter(w),
	}
}

// ContentType returns the Content-Type header value including boundary.
func (e *MultipartEncoder) ContentType() string {
	return e.w.FormDataContentType()
}

// Close closes the multipart writer.
func (e *MultipartEncoder) Close() error {
	return e.w.Close()
}

// Encode writes the multipart request.
func (e *MultipartEncoder) Encode(req MultipartRequest) error {
	for _, file := range req.Files {
		if err := e.writeFile(file); err != nil {
			return fmt.Errorf("file %s: %w", file.FieldName, err)
		}
	}

	for name, value := range req.Params {
		if err := e.w.WriteField(name, value); err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
	}

	return nil
}

func (e *MultipartEncoder) writeFile(file FilePart) error {
	part, err := e.w.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}

	// Stream directly - no buffering
	_, err = io.Copy(part, file.Reader)
	return err
}

// BuildMultipartRequest creates a MultipartRequest from a typed request struct.
// Uses reflection for field iteration, but explicit handling for known types.
// Non-struct payloads yield an empty request.
func BuildMultipartRequest(req any) (MultipartRequest, error) {
	result := MultipartRequest{
		Files:  make([]FilePart, 0),
		Params: make(map[string]string),
	}

	rv := reflect.ValueOf(req)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return result, nil
	}

	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		if !field.IsExported() {
			continue
		}

		// omitempty behavior
		if value.IsZero() {
			continue
		}

		fieldName := getJSONFieldName(field)
		if fieldName == "-" {
			continue
		}

		switch v := value.Interface().(type) {
		case InputFile:
			if err := handleInputFile(&result, fieldName, v); err != nil {
				return result, fmt.Errorf("field %s: %w", fieldName, err)
			}

		case string:
			result.Params[fieldName] = v

		case int:
			result.Params[fieldName] = strconv.Itoa(v)

		case int64:
			result.Params[fieldName] = strconv.FormatInt(v, 10)

		case float64:
			result.Params[fieldName] = strconv.FormatFloat(v, 'f', -1, 64)

		case bool:
			result.Params[fieldName] = strconv.FormatBool(v)

		case []FilePart:
			// Sticker uploads referenced through attach://
			result.Files = append(result.Files, v...)

		default:
			// Complex types (structs, slices, maps) -> JSON encode
			data, err := json.Marshal(v)
			if err != nil {
				return result, fmt.Errorf("field %s: JSON marshal: %w", fieldName, err)
			}
			result.Params[fieldName] = string(data)
		}
	}

	return result, nil
}

func handleInputFile(req *MultipartRequest, fieldName string, file InputFile) error {
	switch {
	case file.FileID != "":
		req.Params[fieldName] = file.FileID

	case file.Source != nil:
		req.Files = append(req.Files, FilePart{
			FieldName: fieldName,
			FileName:  file.FileName,
			Reader:    file.OpenReader(),
		})

	default:
		return fmt.Errorf("InputFile must have FileID or Source set")
	}

	return nil
}

func getJSONFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	parts := strings.Split(tag, ",")
	return parts[0]
}

// HasUploads returns true if the request contains file uploads.
func (r MultipartRequest) HasUploads() bool {
	return len(r.Files) > 0
}
