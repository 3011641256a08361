package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/staple/core"
)

// Key prefixes for different data types
const (
	productPrefix     = "prorec"
	productCodePrefix = "prorecc"
	productDatePrefix = "prorecd"
	checkpointKey     = "bulkload:chkpt"
)

// makeProductKey generates a key for a product by ID.
func makeProductKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", productPrefix, id))
}

// makeProductCodeKey generates a key for the barcode index.
// Format: prefix:code
func makeProductCodeKey(code string) []byte {
	return []byte(productCodePrefix + ":" + code)
}

// makeProductDateKey generates a composite key for the LastUpdated index.
// Format: prefix:timestamp:id
func makeProductDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := productDatePrefix + ":"
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialProductDateKey generates a partial key for date range seeks.
// Format: prefix:timestamp
func makePartialProductDateKey(timestamp time.Time) []byte {
	prefix := productDatePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}
