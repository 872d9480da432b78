// Package hash computes content digests for change detection against the
// remote content repository.
package hash

import (
	"crypto/sha1" //nolint:gosec // git blob object IDs are SHA-1 by definition
	"encoding/hex"
	"fmt"
)

// BlobSHA returns the git blob object ID for content as a hex digest. This is
// the same SHA the repository API reports for a file's current content, so
// comparing digests detects changes without downloading any bytes.
func BlobSHA(content []byte) string {
	h := sha1.New() //nolint:gosec // see package comment
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
