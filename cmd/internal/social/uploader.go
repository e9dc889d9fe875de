package social

import "context"

// BlobUploader stores image payloads submitted with posts and profile
// updates and returns a servable URL. The production deployment plugs
// in a CDN-backed implementation; the default keeps payloads inline.
type BlobUploader interface {
	// Upload persists the image data (typically a data URI) and
	// returns the URL to store on the record.
	Upload(ctx context.Context, data string) (string, error)

	// Delete removes a previously uploaded image. Unknown URLs are
	// ignored.
	Delete(ctx context.Context, url string) error
}

// PassthroughUploader keeps the submitted payload as-is and deletes
// nothing. Suitable for development and tests.
type PassthroughUploader struct{}

func (PassthroughUploader) Upload(_ context.Context, data string) (string, error) {
	return data, nil
}

func (PassthroughUploader) Delete(context.Context, string) error { return nil }
