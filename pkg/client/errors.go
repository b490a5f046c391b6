package client

import (
	"errors"
	"fmt"

	"github.com/coldwire/coldwire/pkg/wire"
)

var (
	ErrUserExisted         = errors.New("client: username already exists")
	ErrInvalidUserOrPass   = errors.New("client: invalid username or password")
	ErrLoginRequired       = errors.New("client: login required")
	ErrConnectionNotSecure = errors.New("client: server has no key exchanged for us yet")
	ErrUserOffline         = errors.New("client: user is offline")
	ErrUserNotFound        = errors.New("client: no such user")
	ErrUnsupported         = errors.New("client: unsupported operation")
	ErrNotLoggedIn         = errors.New("client: not logged in")
)

// errorFromCode maps a wire-level ErrorCode to the sentinel error callers
// can compare against with errors.Is.
func errorFromCode(code wire.ErrorCode) error {
	switch code {
	case wire.ErrCodeUserExisted:
		return ErrUserExisted
	case wire.ErrCodeInvalidUserOrPass:
		return ErrInvalidUserOrPass
	case wire.ErrCodeLoginRequired:
		return ErrLoginRequired
	case wire.ErrCodeConnectionNotSecure:
		return ErrConnectionNotSecure
	case wire.ErrCodeUserOffline:
		return ErrUserOffline
	case wire.ErrCodeUserNotFound:
		return ErrUserNotFound
	case wire.ErrCodeUnsupported:
		return ErrUnsupported
	default:
		return fmt.Errorf("client: server error code %d", code)
	}
}
