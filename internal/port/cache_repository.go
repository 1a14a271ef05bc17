package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed request can be resubmitted
	ReleaseIdempotency(ctx context.Context, key string) error
}
