package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PrefixOrder = "ORDER"
	PrefixSpot  = "SPOT"

	orderSuffixLen = 9
	orderAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewOrderID returns <PREFIX>_<unix millis>_<9 random chars>, e.g. ORDER_1710000000000_abc123xyz.
// Collisions are caught by the unique index on registrations.order_id.
func NewOrderID(prefix string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(prefix) + 24)
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	b.WriteString(randomSuffix(orderSuffixLen))
	return b.String()
}

// randomSuffix draws from the random bytes of a v4 UUID. Byte 6 carries the
// version and byte 8 the variant, so both are skipped.
func randomSuffix(n int) string {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		id := uuid.New()
		buf = append(buf, id[:6]...)
		buf = append(buf, id[7])
		buf = append(buf, id[9:]...)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = orderAlphabet[int(buf[i])%len(orderAlphabet)]
	}
	return string(buf)
}
