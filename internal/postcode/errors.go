package postcode

import "errors"

var (
	// ErrInvalidFormat means the token cannot be normalised into anything the
	// grammar recognises: wrong length, stray punctuation, or (when repair is
	// not attempted) a letter/digit layout matching no shape.
	ErrInvalidFormat = errors.New("invalid postcode format")

	// ErrNoViableCorrection means the token has a plausible length but no
	// confusable substitution turns it into a valid postcode.
	ErrNoViableCorrection = errors.New("no viable postcode correction")
)
