// Package store persists packs and each user's current-pack pointer.
package store

import (
	"context"
	"errors"
)

// Sentinel errors - use with errors.Is()
var (
	ErrPackNotFound   = errors.New("packbot/store: pack not found")
	ErrDuplicateName  = errors.New("packbot/store: pack name already exists")
	ErrNotOwner       = errors.New("packbot/store: pack belongs to another user")
	ErrInvalidPackRef = errors.New("packbot/store: invalid pack reference")
)

// PackType is fixed when a pack is created.
type PackType string

const (
	TypeRegular     PackType = "regular"
	TypeCustomEmoji PackType = "custom_emoji"
)

// Valid reports whether t is a known pack type.
func (t PackType) Valid() bool {
	return t == TypeRegular || t == TypeCustomEmoji
}

// Pack is a user-owned sticker collection. Name is the remote sticker set
// name and is unique across all users.
type Pack struct {
	ID      int64
	OwnerID int64
	Name    string
	Title   string
	Type    PackType
}

// Store is implemented by the memory and PostgreSQL backends.
// Every method is atomic for the records it touches.
type Store interface {
	// ListPacks returns the user's packs ordered by id.
	ListPacks(ctx context.Context, userID int64) ([]Pack, error)
	// CurrentPackID returns the user's selected pack, if any.
	CurrentPackID(ctx context.Context, userID int64) (int64, bool, error)
	// SetCurrentPackID selects packID for the user. The pack must be owned
	// by the user.
	SetCurrentPackID(ctx context.Context, userID, packID int64) error
	// CreatePack inserts a pack and returns its id.
	CreatePack(ctx context.Context, userID int64, name, title string, typ PackType) (int64, error)
	// GetPack loads a pack by id.
	GetPack(ctx context.Context, packID int64) (Pack, error)
	// DeletePack removes a pack owned by userID and clears any pointer to it.
	DeletePack(ctx context.Context, packID, userID int64) error
	// CountPacks returns how many packs the user owns.
	CountPacks(ctx context.Context, userID int64) (int, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close()
}
