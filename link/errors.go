package link

import "errors"

var (
	// ErrPayloadTooLarge indicates a payload exceeding MaxPayloadLen was
	// given to an encode function.
	ErrPayloadTooLarge = errors.New("link: payload exceeds maximum length")

	// ErrTooManyLabels indicates more than MaxLabels labels were given
	// to EncodeLabels.
	ErrTooManyLabels = errors.New("link: too many labels")

	// ErrLabelTooLong indicates a label longer than a length prefix can
	// describe was given to EncodeLabels.
	ErrLabelTooLong = errors.New("link: label exceeds maximum encodable length")
)
