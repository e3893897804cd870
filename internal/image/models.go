package image

import (
	"io"
	"time"
)

// File is an image handed to Upload. Name is only used to derive the extension.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Image describes a stored object and the public URL it is served from.
type Image struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// PutOptions are passed through to the storage backend on upload.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// DeleteOutcome classifies what a best-effort delete actually did.
type DeleteOutcome string

const (
	DeleteRemoved  DeleteOutcome = "removed"
	DeleteNotFound DeleteOutcome = "not_found"
	// DeleteFailed means an error occurred and was ignored.
	DeleteFailed DeleteOutcome = "failed"
)

// DeleteResult reports a delete. Err is set only for DeleteFailed.
type DeleteResult struct {
	Outcome DeleteOutcome
	Key     string
	Err     error
}
