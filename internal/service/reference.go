package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reference numbers are human-readable, year-scoped and sequential:
// INV-2024-000123 for orders, WS-2024-000045 for wholesale requests.
// The sequence resets each year because the prefix filter includes the
// year. The read-then-increment is not atomic, so creation relies on the
// store's uniqueness constraint and retries with a fresh number on
// conflict.
const (
	orderNumberPrefix     = "INV"
	wholesaleNumberPrefix = "WS"

	// referenceMaxAttempts bounds the regenerate-on-conflict loop.
	referenceMaxAttempts = 3
)

type latestNumberFunc func(ctx context.Context, prefix string) (string, error)

func generateReferenceNumber(ctx context.Context, prefix string, now time.Time, latest latestNumberFunc) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, now.Year())

	last, err := latest(ctx, yearPrefix)
	if err != nil {
		return "", err
	}

	return yearPrefix + fmt.Sprintf("%06d", lastSequence(last)+1), nil
}

// lastSequence extracts the numeric sequence from the third
// dash-delimited segment of the latest reference. Anything unparsable
// counts as zero so the first reference of a year becomes 000001.
func lastSequence(latest string) int {
	if latest == "" {
		return 0
	}
	parts := strings.Split(latest, "-")
	if len(parts) != 3 {
		return 0
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return seq
}
