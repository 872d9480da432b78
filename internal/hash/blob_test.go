package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobSHA(t *testing.T) {
	t.Parallel()

	// Digests verified with `git hash-object`.
	require.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", BlobSHA([]byte("hello\n")))
	require.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", BlobSHA([]byte{}))
}

func TestBlobSHAStable(t *testing.T) {
	t.Parallel()

	a := BlobSHA([]byte("content"))
	b := BlobSHA([]byte("content"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, BlobSHA([]byte("content!")))
}
