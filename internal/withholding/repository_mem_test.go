package withholding

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memRepository serializes whole transactions the way the advisory lock
// serializes issuance per prefix.
type memRepository struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	nextID    int64
	rows      map[int64]Certificate
	conflicts int
	txCount   int
}

func newMemRepository() *memRepository {
	return &memRepository{rows: map[int64]Certificate{}}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.txCount++
	snapshot := make(map[int64]Certificate, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.rows = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memRepository) LockNumbering(context.Context, string) error { return nil }

func (m *memRepository) DocNumbersWithPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.rows {
		if strings.HasPrefix(c.DocNo, prefix) {
			out = append(out, c.DocNo)
		}
	}
	return out, nil
}

func (m *memRepository) Get(_ context.Context, id int64) (*Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memRepository) List(_ context.Context, filter ListFilter) ([]Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Certificate
	for id := m.nextID; id > 0 && len(out) < filter.Limit; id-- {
		c, ok := m.rows[id]
		if !ok {
			continue
		}
		q := strings.ToLower(filter.Query)
		if q != "" && !strings.Contains(strings.ToLower(c.DocNo+" "+c.Payer.Name+" "+c.Payee.Name), q) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memRepository) Insert(_ context.Context, c *Certificate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return 0, ErrDocNoConflict
	}
	for _, existing := range m.rows {
		if existing.DocNo == c.DocNo {
			return 0, ErrDocNoConflict
		}
	}
	m.nextID++
	row := *c
	row.ID = m.nextID
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID] = row
	return row.ID, nil
}

func (m *memRepository) Update(_ context.Context, c *Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[c.ID]
	if !ok {
		return ErrNotFound
	}
	row := *c
	row.DocNo = old.DocNo
	row.Payer = old.Payer
	row.PayerBranchNo = old.PayerBranchNo
	row.UpdatedAt = time.Now()
	m.rows[c.ID] = row
	return nil
}
