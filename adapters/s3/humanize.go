package s3

import "github.com/dustin/go-humanize"

// FormatBytes 以 IEC 單位格式化位元組數
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
