package protocol

import "errors"

var (
	// ErrBadVersion means the first byte of a frame was not the protocol version.
	ErrBadVersion = errors.New("protocol: unsupported frame version")

	// ErrFrameTooLarge means a declared header or payload length exceeds the cap.
	ErrFrameTooLarge = errors.New("protocol: frame too large")

	// ErrMalformedHeader means a composite header or tagged content string could
	// not be split into the fields its kind requires.
	ErrMalformedHeader = errors.New("protocol: malformed header")
)
