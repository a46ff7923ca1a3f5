// Package reading extracts text from a single image by calling a remote
// vision or OCR model. Backends are interchangeable behind the Reader
// contract; a Factory binds one backend's configuration so the conversion
// pipeline can construct a fresh Reader per image.
package reading

import (
	"context"
	"fmt"
)

// Reader extracts text from the image it was constructed for. A Reader is
// built for exactly one image and one prompt; Read performs the remote
// call(s).
type Reader interface {
	Read(ctx context.Context) (string, error)
}

// Factory constructs a Reader for one source image and the shared prompt.
// Construction normalizes the image eagerly, so an unreadable file fails
// here, before any network call is made.
type Factory func(prompt string, imagePath string) (Reader, error)

// BackendError reports a failed or malformed response from a remote model.
// The raw response body is kept for diagnosis.
type BackendError struct {
	Backend string
	Status  int
	Body    string
	Reason  string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s backend error: status %d: %s", e.Backend, e.Status, e.Body)
	}
	return fmt.Sprintf("%s backend error: %s: %s", e.Backend, e.Reason, e.Body)
}
