package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "QT-2025-0001", FormatNumber("QT", 2025, 1))
	assert.Equal(t, "PND53-2025-0042", FormatNumber("PND53", 2025, 42))
	assert.Equal(t, "IV-2025-12345", FormatNumber("IV", 2025, 12345))
}

func TestParseSequence(t *testing.T) {
	prefix := NumberPrefix("QT", 2025)
	assert.Equal(t, 7, ParseSequence("QT-2025-0007", prefix))
	assert.Equal(t, 0, ParseSequence("QT-2025-00x7", prefix))
	assert.Equal(t, 0, ParseSequence("QT-2025-", prefix))
	assert.Equal(t, 0, ParseSequence("IV-2025-0007", prefix))
}

func TestNextSequenceTakesMaxParsed(t *testing.T) {
	prefix := NumberPrefix("QT", 2025)
	assert.Equal(t, 1, NextSequence(nil, prefix))
	// Ordering of input does not matter and corrupt rows count as zero.
	existing := []string{"QT-2025-0009", "QT-2025-0002", "QT-2025-broken", "QT-2025-0010"}
	assert.Equal(t, 11, NextSequence(existing, prefix))
	assert.Equal(t, 1, NextSequence([]string{"QT-2025-junk"}, prefix))
}

type seriesStub struct {
	locked  []string
	numbers []string
	lockErr error
}

func (s *seriesStub) LockNumbering(_ context.Context, prefix string) error {
	s.locked = append(s.locked, prefix)
	return s.lockErr
}

func (s *seriesStub) DocNumbersWithPrefix(context.Context, string) ([]string, error) {
	return s.numbers, nil
}

func TestIssueNumberLocksSeries(t *testing.T) {
	stub := &seriesStub{numbers: []string{"PND3-2025-0004", "PND3-2025-0011"}}
	no, err := IssueNumber(context.Background(), stub, "PND3", 2025)
	require.NoError(t, err)
	assert.Equal(t, "PND3-2025-0012", no)
	assert.Equal(t, []string{"PND3-2025-"}, stub.locked)
}

func TestIssueNumberLockFailure(t *testing.T) {
	stub := &seriesStub{lockErr: errors.New("deadlock detected")}
	_, err := IssueNumber(context.Background(), stub, "QT", 2025)
	assert.ErrorIs(t, err, stub.lockErr)
}
