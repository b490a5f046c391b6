package requestmux

import "errors"

// ErrTimeout is returned by Request when the retry budget is exhausted
// without a reply arriving.
var ErrTimeout = errors.New("requestmux: request timed out")

// ErrClosed is not returned by any Mux method: once Release has discarded
// the peer's state, Request and Notify fail with
// securechannel.ErrNoDestinationKey until a key is installed again.
var ErrClosed = errors.New("requestmux: peer released")
