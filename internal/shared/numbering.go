package shared

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix returns the "{TYPE}-{YEAR}-" prefix shared by a numbering series.
func NumberPrefix(kind string, year int) string {
	return fmt.Sprintf("%s-%d-", kind, year)
}

// FormatNumber renders "{TYPE}-{YEAR}-{0001}".
func FormatNumber(kind string, year, seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix(kind, year), seq)
}

// ParseSequence extracts the numeric suffix of number. Numbers outside the
// prefix or with a corrupt suffix yield 0.
func ParseSequence(number, prefix string) int {
	if !strings.HasPrefix(number, prefix) {
		return 0
	}
	seq, err := strconv.Atoi(strings.TrimSpace(number[len(prefix):]))
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

// NextSequence returns one more than the highest parsed suffix in existing.
func NextSequence(existing []string, prefix string) int {
	max := 0
	for _, n := range existing {
		if seq := ParseSequence(n, prefix); seq > max {
			max = seq
		}
	}
	return max + 1
}

// NumberLocker is the transactional view a numbering series needs.
// LockNumbering must hold its lock until the surrounding transaction ends.
type NumberLocker interface {
	LockNumbering(ctx context.Context, prefix string) error
	DocNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// IssueNumber locks the "{KIND}-{YEAR}-" series and returns its next number.
// The caller must insert the numbered row in the same transaction.
func IssueNumber(ctx context.Context, locker NumberLocker, kind string, year int) (string, error) {
	prefix := NumberPrefix(kind, year)
	if err := locker.LockNumbering(ctx, prefix); err != nil {
		return "", fmt.Errorf("lock %s series: %w", prefix, err)
	}
	existing, err := locker.DocNumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list %s numbers: %w", prefix, err)
	}
	return FormatNumber(kind, year, NextSequence(existing, prefix)), nil
}
