package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a decode failure
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors that did not come from Decode
	KindUnknown ErrorKind = iota
	// KindHeaderTooShort indicates a datagram shorter than the 4-byte packet header
	KindHeaderTooShort
	// KindLengthMismatch indicates the header length disagrees with the datagram size
	KindLengthMismatch
	// KindTruncatedTLV indicates a TLV whose header or value runs past the payload
	KindTruncatedTLV
	// KindTrailingBytes indicates 1-2 undecodable bytes after the last TLV
	KindTrailingBytes
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindHeaderTooShort:
		return "header too short"
	case KindLengthMismatch:
		return "length mismatch"
	case KindTruncatedTLV:
		return "truncated TLV"
	case KindTrailingBytes:
		return "trailing bytes"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError is returned for every malformed datagram or TLV
type DecodeError struct {
	Kind ErrorKind
	Msg  string
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Msg == "" {
		return "protocol: " + e.Kind.String()
	}
	return fmt.Sprintf("protocol: %s: %s", e.Kind, e.Msg)
}

// Is matches any DecodeError of the same kind, so the sentinels below work
// with errors.Is regardless of the message.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrHeaderTooShort = &DecodeError{Kind: KindHeaderTooShort}
	ErrLengthMismatch = &DecodeError{Kind: KindLengthMismatch}
	ErrTruncatedTLV   = &DecodeError{Kind: KindTruncatedTLV}
	ErrTrailingBytes  = &DecodeError{Kind: KindTrailingBytes}
)

// ErrValueLength is returned by Tuple.FormatValue when a typed value has the
// wrong number of bytes for its type.
var ErrValueLength = errors.New("protocol: invalid value length for type")

func decodeErrorf(kind ErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of a decode error, or KindUnknown
func KindOf(err error) ErrorKind {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr.Kind
	}
	return KindUnknown
}

// IsDecodeError reports whether err is a malformed-input failure
func IsDecodeError(err error) bool {
	return KindOf(err) != KindUnknown
}
