package artifact

import "errors"

// Sentinel kinds for artifact loading errors. Every load failure wraps one.
var (
	ErrOpen         = errors.New("open artifact failed")
	ErrDecode       = errors.New("decode artifact failed")
	ErrInvalid      = errors.New("invalid artifact")
	ErrInconsistent = errors.New("artifact members disagree")
	ErrTooLarge     = errors.New("artifact exceeds size limit")
)
