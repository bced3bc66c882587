package sales

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memRepository serializes transactions behind one mutex and rolls back by
// restoring a snapshot.
type memRepository struct {
	mu     sync.Mutex
	docs   map[int64]Document
	nextID int64

	// insertConflicts makes the next N inserts fail as a number collision.
	insertConflicts int
	txCount         int
}

func newMemRepository() *memRepository {
	return &memRepository{docs: map[int64]Document{}}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++
	snapshot := make(map[int64]Document, len(m.docs))
	for k, v := range m.docs {
		snapshot[k] = v
	}
	nextID := m.nextID
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.docs, m.nextID = snapshot, nextID
		return err
	}
	return nil
}

func (m *memRepository) Get(_ context.Context, id int64) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *memRepository) get(id int64) (*Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(d), nil
}

func (m *memRepository) List(_ context.Context, f ListFilter) ([]Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Document
	for _, d := range m.docs {
		if f.DocType != "" && d.DocType != f.DocType {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(d.DocNo+" "+d.Customer.Name, f.Query) {
			continue
		}
		out = append(out, *copyDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if f.Offset >= len(out) {
		return []Document{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memRepository) Children(_ context.Context, parentID int64) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Document{}
	for _, d := range m.docs {
		if d.ParentID != nil && *d.ParentID == parentID {
			out = append(out, *copyDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memTx struct {
	m *memRepository
}

func (t *memTx) LockNumbering(context.Context, string) error { return nil }

func (t *memTx) DocNumbersWithPrefix(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, d := range t.m.docs {
		if strings.HasPrefix(d.DocNo, prefix) {
			out = append(out, d.DocNo)
		}
	}
	return out, nil
}

func (t *memTx) GetForUpdate(_ context.Context, id int64) (*Document, error) {
	return t.m.get(id)
}

func (t *memTx) FindChild(_ context.Context, parentID int64, docType DocType) (*Document, error) {
	for _, d := range t.m.docs {
		if d.ParentID != nil && *d.ParentID == parentID && d.DocType == docType {
			return copyDocument(d), nil
		}
	}
	return nil, nil
}

func (t *memTx) Insert(_ context.Context, d *Document) (int64, error) {
	if t.m.insertConflicts > 0 {
		t.m.insertConflicts--
		return 0, ErrDocNoConflict
	}
	for _, existing := range t.m.docs {
		if existing.DocNo == d.DocNo {
			return 0, ErrDocNoConflict
		}
		if d.ParentID != nil && existing.ParentID != nil && *existing.ParentID == *d.ParentID && existing.DocType == d.DocType {
			return 0, ErrChildExists
		}
	}
	t.m.nextID++
	d.ID = t.m.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	for i := range d.Lines {
		d.Lines[i].ID = d.ID*100 + int64(i)
	}
	t.m.docs[d.ID] = *copyDocument(*d)
	return d.ID, nil
}

func (t *memTx) UpdateHeader(_ context.Context, d *Document) error {
	cur, ok := t.m.docs[d.ID]
	if !ok {
		return ErrNotFound
	}
	lines := cur.Lines
	next := *copyDocument(*d)
	next.Lines = lines
	next.UpdatedAt = time.Now()
	t.m.docs[d.ID] = next
	return nil
}

func (t *memTx) ReplaceLines(_ context.Context, docID int64, lines []Line) error {
	cur, ok := t.m.docs[docID]
	if !ok {
		return ErrNotFound
	}
	cur.Lines = append([]Line{}, lines...)
	t.m.docs[docID] = cur
	return nil
}

func (t *memTx) MarkApproved(_ context.Context, id int64, by string, at time.Time) error {
	cur, ok := t.m.docs[id]
	if !ok || cur.Status != StatusDraft {
		return ErrNotFound
	}
	cur.Status = StatusApproved
	cur.ApprovedBy = &by
	cur.ApprovedAt = &at
	t.m.docs[id] = cur
	return nil
}

func copyDocument(d Document) *Document {
	d.Lines = append([]Line{}, d.Lines...)
	return &d
}
