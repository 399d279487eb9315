package domain

import (
	"context"
	"io"
)

// Notifier delivers a message to a recipient. Callers treat it as best
// effort: a failed Notify is logged, never surfaced to the client.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// ImageUploader pushes a file to the remote image host and returns its
// public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}
