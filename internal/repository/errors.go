// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// auth service and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors. For example,
// ErrEmailExists signals a duplicate registration while any other error
// from the same call means the storage layer itself failed.
package repository

import "errors"

// ErrEmailExists is returned when an insert into the users table loses
// the race on the unique email index. Handlers should translate this
// into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenNotFound is returned when a refresh token record is absent,
// expired, or already consumed. The service layer folds this into its
// opaque invalid-token error so callers cannot distinguish the cases.
var ErrTokenNotFound = errors.New("refresh token record not found")
