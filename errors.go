package ptcop

import "errors"

// Error kinds, grounded on the teacher's sentinel-error idiom
// (modplayer.ErrUnrecognizedMODFormat, s3m.ErrInvalidS3M). Wrap with
// fmt.Errorf("...: %w", ErrX) when extra context is useful; callers can
// still errors.Is against the sentinel.
var (
	// ErrFormatInvalid covers header magic mismatch, unknown version,
	// block size disagreement, or a truncated stream.
	ErrFormatInvalid = errors.New("ptcop: invalid file format")

	// ErrFormatRejected is returned when an antiOPER block is encountered.
	ErrFormatRejected = errors.New("ptcop: project rejects loading (antiOPER)")

	// ErrUnsupportedVoice covers a voice configuration outside the
	// supported channels/bits-per-sample/decoder matrix.
	ErrUnsupportedVoice = errors.New("ptcop: unsupported voice configuration")

	// ErrDecodeFailure wraps an underlying Vorbis decoder error.
	ErrDecodeFailure = errors.New("ptcop: decode failure")

	// ErrInvalidText is returned when a name/comment fails the length or
	// encoding check.
	ErrInvalidText = errors.New("ptcop: invalid text field")

	// ErrAddEvent is returned when the event list refuses an add.
	ErrAddEvent = errors.New("ptcop: event not added")

	// ErrTooManyEvents is a specific ErrAddEvent cause: the event list is
	// at capacity.
	ErrTooManyEvents = errors.New("ptcop: too many events")

	// ErrBadIndex is returned by the editing surface when an index does not
	// resolve against the list it addresses.
	ErrBadIndex = errors.New("ptcop: index out of range")

	// ErrRenderNotReady is returned when Sample is called before
	// SetAudioFormat has set a positive channel count and sample rate.
	// Sample does not check whether PrepareSample was called.
	ErrRenderNotReady = errors.New("ptcop: sampler not ready")

	// ErrIOWrite is returned when the writer cannot create or write the
	// output.
	ErrIOWrite = errors.New("ptcop: write failed")

	// ErrUnresolvedReference is returned when an event or woice reference
	// remains unresolved after the end marker.
	ErrUnresolvedReference = errors.New("ptcop: unresolved reference")
)
