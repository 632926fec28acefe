package reviewer

import (
	"crypto/md5" //nolint:gosec // spreads assignments, not a security boundary
	"encoding/binary"
	"strconv"
)

// Select picks the reviewer for an invitation from a sorted pool.
//
// The first four bytes of md5(decimal id) are read as a big-endian uint32 and
// reduced modulo the pool size, so the same id always lands on the same reviewer
// while distinct ids spread across the pool. The pool must not be empty.
func Select(invitationID int64, pool Pool) string {
	return pool[index(invitationID, len(pool))]
}

func index(invitationID int64, n int) int {
	sum := md5.Sum([]byte(strconv.FormatInt(invitationID, 10))) //nolint:gosec // see import
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(n))    //nolint:gosec // n is a pool size
}
