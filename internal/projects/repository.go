package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecost/sitecost/internal/platform/db"
)

// Repository persists projects and their sub-ledgers. Every method joins the
// transaction carried by ctx when there is one.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	Get(ctx context.Context, id int64) (*Project, error)
	GetBySalesDoc(ctx context.Context, salesDocID int64) (*Project, error)
	List(ctx context.Context, filter ListFilter) ([]Project, int, error)
	ListByPeriod(ctx context.Context, period Period) ([]Project, error)
	Insert(ctx context.Context, p *Project) (int64, error)
	UpdateHeader(ctx context.Context, p *Project) error
	ReplaceLedgers(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status Status) error
	SetDepositReturned(ctx context.Context, id int64, returned bool, at *time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, _ pgx.Tx) error {
		return fn(ctx)
	})
}

const projectColumns = `id, code, name, description, customer_name, location, start_date, end_date,
	work_days, status, sales_doc_id, boq_excel_path, boq_pdf_path, deposit_returned, deposit_returned_at,
	created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.CustomerName, &p.Location,
		&p.StartDate, &p.EndDate, &p.WorkDays, &p.Status, &p.SalesDocID, &p.BOQExcelPath,
		&p.BOQPDFPath, &p.DepositReturned, &p.DepositReturnedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) getBy(ctx context.Context, where string, arg any) (*Project, error) {
	exec := db.Executor(ctx, r.pool)
	p, err := scanProject(exec.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	list := []Project{p}
	if err := r.loadLedgers(ctx, exec, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *repository) GetBySalesDoc(ctx context.Context, salesDocID int64) (*Project, error) {
	return r.getBy(ctx, "sales_doc_id = $1", salesDocID)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Project, int, error) {
	exec := db.Executor(ctx, r.pool)
	where := ""
	args := []any{}
	if filter.Query != "" {
		where = "WHERE code ILIKE $1 OR name ILIKE $1"
		args = append(args, "%"+filter.Query+"%")
	}

	var total int
	if err := exec.QueryRow(ctx, "SELECT COUNT(*) FROM projects "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM projects %s ORDER BY updated_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		projectColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	list, err := r.queryProjects(ctx, exec, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) ListByPeriod(ctx context.Context, period Period) ([]Project, error) {
	exec := db.Executor(ctx, r.pool)
	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE start_date IS NOT NULL
		  AND EXTRACT(YEAR FROM start_date) = $1
		  AND ($2 = 0 OR EXTRACT(MONTH FROM start_date) = $2)
		ORDER BY id`
	return r.queryProjects(ctx, exec, query, period.Year, period.Month)
}

func (r *repository) queryProjects(ctx context.Context, exec db.DBTX, query string, args ...any) ([]Project, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var list []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLedgers(ctx, exec, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadLedgers fills the three sub-ledgers of every project in list with one query each.
func (r *repository) loadLedgers(ctx context.Context, exec db.DBTX, list []Project) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]*Project, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = &list[i]
		list[i].Materials = []MaterialItem{}
		list[i].Subcontractors = []SubcontractorPayment{}
		list[i].Expenses = []OtherExpense{}
	}

	rows, err := exec.Query(ctx, `SELECT project_id, id, brand, item_code, item_name, unit, unit_price, qty, note
		FROM material_items WHERE project_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("load materials: %w", err)
	}
	for rows.Next() {
		var pid int64
		var m MaterialItem
		if err := rows.Scan(&pid, &m.ID, &m.Brand, &m.ItemCode, &m.ItemName, &m.Unit, &m.UnitPrice, &m.Qty, &m.Note); err != nil {
			rows.Close()
			return err
		}
		index[pid].Materials = append(index[pid].Materials, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = exec.Query(ctx, `SELECT project_id, id, vendor_name, contract_amount, withholding_rate, withholding_amount, note
		FROM subcontractor_payments WHERE project_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("load subcontractors: %w", err)
	}
	for rows.Next() {
		var pid int64
		var s SubcontractorPayment
		if err := rows.Scan(&pid, &s.ID, &s.VendorName, &s.ContractAmount, &s.WithholdingRate, &s.WithholdingAmount, &s.Note); err != nil {
			rows.Close()
			return err
		}
		index[pid].Subcontractors = append(index[pid].Subcontractors, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = exec.Query(ctx, `SELECT project_id, id, category, title, amount, note
		FROM other_expenses WHERE project_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid int64
		var e OtherExpense
		if err := rows.Scan(&pid, &e.ID, &e.Category, &e.Title, &e.Amount, &e.Note); err != nil {
			return err
		}
		index[pid].Expenses = append(index[pid].Expenses, e)
	}
	return rows.Err()
}

func (r *repository) Insert(ctx context.Context, p *Project) (int64, error) {
	exec := db.Executor(ctx, r.pool)
	var id int64
	err := exec.QueryRow(ctx, `
		INSERT INTO projects (code, name, description, customer_name, location, start_date, end_date,
		    work_days, status, sales_doc_id, boq_excel_path, boq_pdf_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.Code, p.Name, p.Description, p.CustomerName, p.Location, p.StartDate, p.EndDate,
		p.WorkDays, p.Status, p.SalesDocID, p.BOQExcelPath, p.BOQPDFPath,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "projects_code_key") {
			return 0, ErrDuplicateCode
		}
		return 0, fmt.Errorf("insert project: %w", err)
	}
	p.ID = id
	if err := r.insertLedgers(ctx, exec, p); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, p *Project) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx, `
		UPDATE projects SET code = $2, name = $3, description = $4, customer_name = $5, location = $6,
		    start_date = $7, end_date = $8, work_days = $9, status = $10, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Code, p.Name, p.Description, p.CustomerName, p.Location, p.StartDate, p.EndDate,
		p.WorkDays, p.Status)
	if err != nil {
		if db.IsUniqueViolation(err, "projects_code_key") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLedgers(ctx context.Context, p *Project) error {
	exec := db.Executor(ctx, r.pool)
	for _, table := range []string{"material_items", "subcontractor_payments", "other_expenses"} {
		if _, err := exec.Exec(ctx, `DELETE FROM `+table+` WHERE project_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return r.insertLedgers(ctx, exec, p)
}

func (r *repository) insertLedgers(ctx context.Context, exec db.DBTX, p *Project) error {
	for i := range p.Materials {
		m := &p.Materials[i]
		if err := exec.QueryRow(ctx, `
			INSERT INTO material_items (project_id, brand, item_code, item_name, unit, unit_price, qty, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			p.ID, m.Brand, m.ItemCode, m.ItemName, m.Unit, m.UnitPrice, m.Qty, m.Note,
		).Scan(&m.ID); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
	}
	for i := range p.Subcontractors {
		s := &p.Subcontractors[i]
		if err := exec.QueryRow(ctx, `
			INSERT INTO subcontractor_payments (project_id, vendor_name, contract_amount, withholding_rate, withholding_amount, note)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			p.ID, s.VendorName, s.ContractAmount, s.WithholdingRate, s.WithholdingAmount, s.Note,
		).Scan(&s.ID); err != nil {
			return fmt.Errorf("insert subcontractor: %w", err)
		}
	}
	for i := range p.Expenses {
		e := &p.Expenses[i]
		if err := exec.QueryRow(ctx, `
			INSERT INTO other_expenses (project_id, category, title, amount, note)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			p.ID, e.Category, e.Title, e.Amount, e.Note,
		).Scan(&e.ID); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetDepositReturned(ctx context.Context, id int64, returned bool, at *time.Time) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE projects SET deposit_returned = $2, deposit_returned_at = $3, updated_at = NOW() WHERE id = $1`,
		id, returned, at)
	if err != nil {
		return fmt.Errorf("set deposit returned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
