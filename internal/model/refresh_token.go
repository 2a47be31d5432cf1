package model

import "time"

// RefreshTokenRecord anchors one issued refresh token to server-side state.
// The record identifier is embedded in the refresh token's claims; a
// refresh token is only usable while a record with that identifier is
// still live.  Records are stored in Redis with a TTL equal to the
// refresh token's validity window, so an expired record simply reads as
// absent.
//
// Fields:
//  ID        – opaque record identifier (UUID) embedded in the token.
//  UserID    – owner of the token.
//  ExpiresAt – expiration timestamp of the record and the token.
type RefreshTokenRecord struct {
	ID        string
	UserID    uint64
	ExpiresAt time.Time
}
