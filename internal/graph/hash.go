package graph

import "github.com/minio/highwayhash"

// hashKey is a fixed 32-byte key. It does not need to be secret -- content
// hashes are used for dedup/change-detection, not for integrity -- it only
// needs to be stable across runs so that File.Hash is deterministic (§5).
var hashKey = []byte("GraphBuildContentHashKeyV1000000")

// ContentHash returns a deterministic 64-bit content hash, used for File
// nodes' required Hash field (§3).
func ContentHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
