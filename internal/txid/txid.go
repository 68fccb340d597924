// Package txid formats and parses month-scoped transaction ids such as
// "2024-01-007": the seventh transaction dated in January 2024.
package txid

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns an id like "2024-01-001".
func Format(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// Parse splits "2024-01-001" into year, month and seq.
func Parse(id string) (year, month, seq int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction id format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction id %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction id %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction id %q", id)
	}

	return year, month, seq, nil
}

// Next returns the next free id for year/month given the ids already in use.
// Ids that do not parse are ignored.
func Next(ids []string, year, month int) string {
	maxSeq := 0
	for _, id := range ids {
		y, m, seq, err := Parse(id)
		if err != nil || y != year || m != month {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return Format(year, month, maxSeq+1)
}
