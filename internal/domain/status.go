package domain

import (
	"strconv"
	"strings"
)

var poStatusLabels = map[int]string{
	0: "Released",
	1: "Approved",
	2: "Declined",
	3: "Received",
	4: "Sent",
	5: "Arrived",
}

var poStatusCodes = map[string]int{
	"released": 0,
	"approved": 1,
	"declined": 2,
	"received": 3,
	"sent":     4,
	"arrived":  5,
}

// OpenPOStatuses are the statuses whose quantity still counts as pending
// inbound stock.
var OpenPOStatuses = []int{0, 1, 4}

// POStatusLabel returns a human-readable label for a PO status code.
func POStatusLabel(status int) string {
	if label, ok := poStatusLabels[status]; ok {
		return label
	}

	return "Draft"
}

// ParsePOStatus returns the status code for a given label (case-insensitive).
// Numeric codes are accepted as well.
func ParsePOStatus(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if code, ok := poStatusCodes[strings.ToLower(label)]; ok {
		return code, true
	}
	if code, err := strconv.Atoi(label); err == nil {
		if _, ok := poStatusLabels[code]; ok {
			return code, true
		}
	}
	return 0, false
}

// IsOpenPOStatus reports whether goods on a line with this status have not
// arrived yet.
func IsOpenPOStatus(status int) bool {
	for _, s := range OpenPOStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
