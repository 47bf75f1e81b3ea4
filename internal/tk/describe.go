package tk

import (
	"fmt"
	"strings"
	"time"
)

const describeTimeLayout = "2006-01-02 15:04:05Z07:00"

// Describe renders a human readable summary of a container.
func Describe(c Container) (string, error) {
	h := HeaderOf(c)
	tracks, err := TracksOf(c)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Format: %s\n", c.Kind())
	fmt.Fprintf(&sb, "Device name: %s\n", h.DeviceName)
	fmt.Fprintf(&sb, "Device info: %s\n", h.DeviceInfo)
	fmt.Fprintf(&sb, "Device serial: %s\n", h.DeviceSerial)
	fmt.Fprintf(&sb, "Log version: %s\n", h.LogVersion)
	fmt.Fprintf(&sb, "Export time: %s\n", h.ExportTime.UTC().Format(describeTimeLayout))

	loc := time.UTC
	switch v := c.(type) {
	case *V1:
		fmt.Fprintf(&sb, "Tracks: %d\n", len(tracks))
	case *V2:
		loc = v.Offset.Location()
		fmt.Fprintf(&sb, "Timezone: %s\n", v.Offset)
		fmt.Fprintf(&sb, "Comment: %s\n", v.Comment)
	case *V3:
		loc = v.Offset.Location()
		fmt.Fprintf(&sb, "Timezone: %s\n", v.Offset)
		fmt.Fprintf(&sb, "Comment: %s\n", v.Comment)
	}

	for i, tr := range tracks {
		fmt.Fprintf(&sb, "Track %d:\n", i+1)
		fmt.Fprintf(&sb, "  Start: %s\n", tr.First().Time.In(loc).Format(describeTimeLayout))
		fmt.Fprintf(&sb, "  End: %s\n", tr.Last().Time.In(loc).Format(describeTimeLayout))
		fmt.Fprintf(&sb, "  Track points: %d\n", tr.Len())
		fmt.Fprintf(&sb, "  Push points: %d\n", tr.PushCount())
		if c.Kind() != KindV3 {
			fmt.Fprintf(&sb, "  Track length: %.2fkm\n", tr.LengthM()/1000)
			fmt.Fprintf(&sb, "  Track duration: %s\n", formatDuration(tr.Duration()))
		}
	}
	return sb.String(), nil
}

func formatDuration(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02dh %02dm %02ds", s/3600, (s/60)%60, s%60)
}
