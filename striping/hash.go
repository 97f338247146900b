package striping

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// HashFunc maps a key onto an unsigned hash value. The registry reduces it modulo the stripe count.
type HashFunc func(key int64) uint64

// ModuloHash uses the key itself, so consecutive keys land on consecutive stripes.
// It suits uniformly distributed keys.
func ModuloHash(key int64) uint64 {
	return uint64(key)
}

// Murmur3Hash spreads clustered or strided keys evenly across the stripes.
func Murmur3Hash(key int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))

	return murmur3.Sum64(buf[:])
}
