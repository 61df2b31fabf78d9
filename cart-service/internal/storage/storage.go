package storage

import (
	"errors"
	"fmt"
)

// ErrSnapshotNotFound is returned by Read when nothing was written under the key yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotKey is the storage key of the cart snapshot for cartID.
func SnapshotKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
