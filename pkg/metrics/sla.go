package metrics

import (
	"strconv"
	"strings"
)

// ParseSLAHours converts a free-form SLA target string to hours.
//
// Recognized forms are "<number> hour(s)" and "<number> minute(s)". Any
// other unit (including "day") and any string without a leading number
// counts as zero hours. Treating unrecognized units as zero rather than
// rejecting the outcome keeps averaging total, at the cost of understating
// batches that use units this parser does not know.
func ParseSLAHours(sla string) float64 {
	fields := strings.Fields(sla)
	if len(fields) == 0 {
		return 0
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}

	switch {
	case strings.Contains(sla, "hour"):
		return value
	case strings.Contains(sla, "minute"):
		return value / 60
	default:
		return 0
	}
}
