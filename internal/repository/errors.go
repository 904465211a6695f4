// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios and map them onto
// HTTP status codes.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as confirming an order that is no longer
// pending. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email address is
// already registered. The unique index on users.email is the source of
// truth; first writer wins.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyConfirmed is returned when a confirmation token matches an
// order that has already been confirmed. No state changes and no audit
// row is written in that case.
var ErrAlreadyConfirmed = errors.New("order already confirmed")

// ErrOrderCancelled is returned when a confirmation token matches a
// cancelled order.
var ErrOrderCancelled = errors.New("order cancelled")
