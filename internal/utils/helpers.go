package utils

import (
	"fmt"
	"time"
)

// FormatInterval renders an interval the way the tracking indicator shows it.
func FormatInterval(d time.Duration) string {
	return fmt.Sprintf("%d sec", d/time.Second)
}
