package visit

import "errors"

var (
	// ErrInvalidMagic indicates the stream does not start with the pool magic.
	ErrInvalidMagic = errors.New("visit: invalid magic")
	// ErrUnsupportedVersion indicates the stream was written by an unknown format version.
	ErrUnsupportedVersion = errors.New("visit: unsupported version")
	// ErrUnknownCompression indicates the header names a compression codec this build does not know.
	ErrUnknownCompression = errors.New("visit: unknown compression")
	// ErrChecksumMismatch indicates the decoded body does not match the stored checksum.
	ErrChecksumMismatch = errors.New("visit: checksum mismatch")
	// ErrLengthTooLarge indicates a length prefix exceeds the configured limit.
	ErrLengthTooLarge = errors.New("visit: length prefix too large")
	// ErrTrailingData indicates the body holds bytes the visit function did not consume.
	ErrTrailingData = errors.New("visit: trailing data after body")
	// ErrTypeAlreadyRegistered indicates an attempt to register the same type name twice.
	ErrTypeAlreadyRegistered = errors.New("visit: type already registered")
	// ErrTypeNotRegistered signals lookup of an unknown type name or Go type.
	ErrTypeNotRegistered = errors.New("visit: type not registered")
	// ErrNilConstructor is returned when registration receives a nil constructor.
	ErrNilConstructor = errors.New("visit: nil constructor")
	// ErrTypeMismatch indicates a registered constructor produced a value of the wrong type.
	ErrTypeMismatch = errors.New("visit: constructed value has unexpected type")
)
