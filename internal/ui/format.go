package ui

import "fmt"

// FormatKB renders a kilobyte count in binary units with two decimals,
// e.g. 98765 -> "96.45 MB".
func FormatKB(kb int64) string {
	const (
		mb = 1024
		gb = 1024 * mb
	)
	switch {
	case kb >= gb:
		return fmt.Sprintf("%.2f GB", float64(kb)/gb)
	case kb >= mb:
		return fmt.Sprintf("%.2f MB", float64(kb)/mb)
	default:
		return fmt.Sprintf("%d KB", kb)
	}
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
