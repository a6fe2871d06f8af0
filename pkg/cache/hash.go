package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// frameKey names one rendered frame: the resolved scene it came from, the
// sub-scene it shows and the image geometry. The result is "frame:" and a
// SHA-256 hex digest.
func frameKey(sceneHash string, opts FrameKeyOpts) string {
	return "frame:" + Hash(fmt.Appendf(nil, "%s|%s|%dx%d", sceneHash, opts.Index, opts.Width, opts.Height))
}

// Hash returns the hex SHA-256 of data. Resolved scenes and file cache
// entries are named by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
