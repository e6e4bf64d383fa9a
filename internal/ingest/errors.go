package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies why an item failed.
type Kind int

const (
	KindNone Kind = iota
	KindNoPackSelected
	KindPackNotFound
	KindUnsupportedMedia
	KindTranscode
	KindRemoteRateLimited
	KindRemoteSetNotFound
	KindRemoteAPI
	KindStore
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindNoPackSelected:    "no_pack_selected",
	KindPackNotFound:      "pack_not_found",
	KindUnsupportedMedia:  "unsupported_media",
	KindTranscode:         "transcode",
	KindRemoteRateLimited: "remote_rate_limited",
	KindRemoteSetNotFound: "remote_set_not_found",
	KindRemoteAPI:         "remote_api",
	KindStore:             "store",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries the failure kind of an item and its cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "packbot/ingest: " + e.Kind.String()
	}
	return "packbot/ingest: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind from err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
