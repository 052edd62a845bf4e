// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// settlement service and handlers to distinguish between failure
// scenarios without inspecting driver errors directly.
package repository

import "errors"

// ErrBeatNotFound is returned when a beat id does not match any row in
// the beats table. Handlers should translate this into an HTTP 404.
var ErrBeatNotFound = errors.New("beat not found")

// ErrSaleNotFound is returned when no sale row exists for a payment
// intent id.
var ErrSaleNotFound = errors.New("sale not found")
