// Package repository defines error values shared across repositories.
// These sentinels let handlers distinguish failure classes without
// inspecting driver errors: ErrForbidden maps to HTTP 403, ErrConflict
// to 409, ErrInvalidState to 409 on lifecycle violations and
// ErrValidation to 422.  "Not found" is signalled with sql.ErrNoRows,
// matching what QueryRow returns for an absent record.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else, such as checking out another user's
// session.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state: the user already has an open session, or the desk
// is not available.
var ErrConflict = errors.New("conflict")

// ErrInvalidState is returned when an operation is not valid for the
// record's current lifecycle state, e.g. starting a break on a
// completed check-in or ending a break that was never started.
var ErrInvalidState = errors.New("invalid state")

// ErrValidation is returned for malformed input that never reaches the
// database, such as an unknown break type or density level.
var ErrValidation = errors.New("validation failed")
