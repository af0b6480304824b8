package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count for humans, e.g. "1.2 MB"
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

// FormatCount renders a count with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatAge renders how long ago t was, e.g. "3 minutes ago"
func FormatAge(t time.Time) string {
	return humanize.Time(t)
}
