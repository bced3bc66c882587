package projects

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memRepository is an in-memory Repository for service tests.
type memRepository struct {
	mu         sync.Mutex
	nextID     int64
	projects   map[int64]Project
	periodHits int
}

func newMemRepository() *memRepository {
	return &memRepository{projects: map[int64]Project{}}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	m.mu.Lock()
	snapshot := make(map[int64]Project, len(m.projects))
	for k, v := range m.projects {
		snapshot[k] = v
	}
	m.mu.Unlock()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.projects = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memRepository) Get(_ context.Context, id int64) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *memRepository) GetBySalesDoc(_ context.Context, salesDocID int64) (*Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.SalesDocID != nil && *p.SalesDocID == salesDocID {
			return clone(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepository) List(_ context.Context, filter ListFilter) ([]Project, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Project
	for _, p := range m.sorted() {
		q := strings.ToLower(filter.Query)
		if q != "" && !strings.Contains(strings.ToLower(p.Code+" "+p.Name), q) {
			continue
		}
		out = append(out, *clone(p))
	}
	total := len(out)
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memRepository) ListByPeriod(_ context.Context, period Period) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periodHits++
	var out []Project
	for _, p := range m.sorted() {
		if p.StartDate == nil || p.StartDate.Year() != period.Year {
			continue
		}
		if period.Month > 0 && int(p.StartDate.Month()) != period.Month {
			continue
		}
		out = append(out, *clone(p))
	}
	return out, nil
}

func (m *memRepository) Insert(_ context.Context, p *Project) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Code == p.Code {
			return 0, ErrDuplicateCode
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = *clone(*p)
	return p.ID, nil
}

func (m *memRepository) UpdateHeader(_ context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.projects[p.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range m.projects {
		if id != p.ID && existing.Code == p.Code {
			return ErrDuplicateCode
		}
	}
	cur.Code, cur.Name, cur.Description = p.Code, p.Name, p.Description
	cur.CustomerName, cur.Location = p.CustomerName, p.Location
	cur.StartDate, cur.EndDate = p.StartDate, p.EndDate
	cur.WorkDays, cur.Status = p.WorkDays, p.Status
	m.projects[p.ID] = cur
	return nil
}

func (m *memRepository) ReplaceLedgers(_ context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.projects[p.ID]
	if !ok {
		return ErrNotFound
	}
	cp := clone(*p)
	cur.Materials, cur.Subcontractors, cur.Expenses = cp.Materials, cp.Subcontractors, cp.Expenses
	m.projects[p.ID] = cur
	return nil
}

func (m *memRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *memRepository) SetStatus(_ context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	m.projects[id] = p
	return nil
}

func (m *memRepository) SetDepositReturned(_ context.Context, id int64, returned bool, at *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.DepositReturned, p.DepositReturnedAt = returned, at
	m.projects[id] = p
	return nil
}

func (m *memRepository) sorted() []Project {
	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func clone(p Project) *Project {
	p.Materials = append([]MaterialItem{}, p.Materials...)
	p.Subcontractors = append([]SubcontractorPayment{}, p.Subcontractors...)
	p.Expenses = append([]OtherExpense{}, p.Expenses...)
	return &p
}
