// Package upload copies result files to remote storage.
package upload

import "context"

// Uploader uploads result files to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	// It writes a small test object so misconfiguration fails before the
	// benchmark runs rather than after.
	Preflight(ctx context.Context) error

	// UploadFile uploads one local file and returns its remote key.
	UploadFile(ctx context.Context, localPath string) (string, error)
}
