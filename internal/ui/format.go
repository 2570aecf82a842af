// internal/ui/format.go
package ui

import (
	"fmt"
	"strings"
)

// FormatDuration renders a track length in milliseconds as mm:ss,
// hh:mm:ss or d:hh:mm:ss. A nil duration (live stream) is "unknown".
func FormatDuration(ms *int64) string {
	if ms == nil {
		return "unknown"
	}

	total := *ms / 1000
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := (total / 3600) % 24
	days := total / 86400

	switch {
	case days > 0:
		return fmt.Sprintf("%d:%02d:%02d:%02d", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
}

// HQThumbnail swaps the last path segment of a thumbnail-style URI for
// the high-quality variant.
func HQThumbnail(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return uri
	}
	return uri[:idx+1] + "hqdefault.jpg"
}
