package image

import "errors"

var (
	// ErrMissingFile signals an upload without a payload.
	ErrMissingFile = errors.New("no image file provided")
	// ErrInvalidType signals a media type outside the image allow-list.
	ErrInvalidType = errors.New("please upload a valid image file (JPEG, PNG, WebP, or GIF)")
	// ErrTooLarge signals a payload above the size ceiling.
	ErrTooLarge = errors.New("image size must be less than 5MB")
	// ErrObjectExists signals a generated key collided with a stored object.
	ErrObjectExists = errors.New("object already exists")
	// ErrImageNotFound signals the registry has no row for the lookup.
	ErrImageNotFound = errors.New("image not found")
	// ErrUnparseableURL signals a public URL from which no key can be recovered.
	ErrUnparseableURL = errors.New("cannot derive object key from url")
)
