// Package persistence defines the pluggable storage port for viewer state.
//
// The feed core persists two small JSON documents (the seen map and the
// preference profile) through this port and never touches a concrete
// storage API directly, so backends can be swapped per deployment and
// in tests.
package persistence

import "context"

// Port stores and retrieves named JSON documents.
type Port interface {
	// Load returns the stored bytes for key, or ErrNotFound when the key
	// has never been saved.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error
}

// Well-known document keys used by the feed core.
const (
	// KeySeenMap holds the item identity -> display count mapping.
	KeySeenMap = "seen_map"
	// KeyProfile holds the viewer preference profile.
	KeyProfile = "user_profile"
)
