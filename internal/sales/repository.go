package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecost/sitecost/internal/platform/db"
)

const (
	docNoConstraint      = "ux_sales_docs_doc_no"
	parentTypeConstraint = "ux_sales_docs_parent_type"
)

// Repository is the read side plus the transaction entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, filter ListFilter) ([]Document, int, error)
	Children(ctx context.Context, parentID int64) ([]Document, error)
}

// TxRepository exposes the operations that must run inside one transaction.
type TxRepository interface {
	// LockNumbering serializes number issuance for prefix until the
	// transaction ends.
	LockNumbering(ctx context.Context, prefix string) error
	DocNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	GetForUpdate(ctx context.Context, id int64) (*Document, error)
	// FindChild returns nil when parentID has no child of docType.
	FindChild(ctx context.Context, parentID int64, docType DocType) (*Document, error)
	Insert(ctx context.Context, doc *Document) (int64, error)
	UpdateHeader(ctx context.Context, doc *Document) error
	ReplaceLines(ctx context.Context, docID int64, lines []Line) error
	MarkApproved(ctx context.Context, id int64, by string, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn in a read-committed transaction so that statements issued
// after the numbering lock see rows committed while waiting for it. The
// transaction travels in ctx for collaborators from other packages.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxIsolation(ctx, r.pool, pgx.ReadCommitted, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ============================================================================
// READS
// ============================================================================

const documentColumns = `id, doc_type, doc_no, status, issue_date, due_date,
	customer_id, customer_name, customer_tax_id, customer_address, customer_phone, customer_email,
	company_name, company_tax_id, company_address, company_phone, company_email, company_website, company_logo_path,
	subject, description, note, deposit_note, payment_terms,
	discount_amount, vat_rate, wht_rate, warranty_months, warranty_end_date,
	approved_by, approved_at, parent_id, boq_excel_path, boq_pdf_path, created_at, updated_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.DocType, &d.DocNo, &d.Status, &d.IssueDate, &d.DueDate,
		&d.Customer.CustomerID, &d.Customer.Name, &d.Customer.TaxID, &d.Customer.Address, &d.Customer.Phone, &d.Customer.Email,
		&d.Company.Name, &d.Company.TaxID, &d.Company.Address, &d.Company.Phone, &d.Company.Email, &d.Company.Website, &d.Company.LogoPath,
		&d.Subject, &d.Description, &d.Note, &d.DepositNote, &d.PaymentTerms,
		&d.DiscountAmount, &d.VATRate, &d.WHTRate, &d.WarrantyMonths, &d.WarrantyEndDate,
		&d.ApprovedBy, &d.ApprovedAt, &d.ParentID, &d.BOQExcelPath, &d.BOQPDFPath, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func getDocument(ctx context.Context, exec db.DBTX, query string, args ...any) (*Document, error) {
	d, err := scanDocument(exec.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	list := []Document{d}
	if err := loadLines(ctx, exec, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func queryDocuments(ctx context.Context, exec db.DBTX, query string, args ...any) ([]Document, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var list []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadLines(ctx, exec, list); err != nil {
		return nil, err
	}
	return list, nil
}

func loadLines(ctx context.Context, exec db.DBTX, list []Document) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]*Document, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = &list[i]
		list[i].Lines = []Line{}
	}
	rows, err := exec.Query(ctx, `SELECT doc_id, id, description, qty, unit_price, discount_amount, line_order
		FROM sales_doc_items WHERE doc_id = ANY($1) ORDER BY line_order, id`, ids)
	if err != nil {
		return fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var docID int64
		var l Line
		if err := rows.Scan(&docID, &l.ID, &l.Description, &l.Qty, &l.UnitPrice, &l.DiscountAmount, &l.LineOrder); err != nil {
			return err
		}
		index[docID].Lines = append(index[docID].Lines, l)
	}
	return rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Document, error) {
	return getDocument(ctx, db.Executor(ctx, r.pool), `SELECT `+documentColumns+` FROM sales_docs WHERE id = $1`, id)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Document, int, error) {
	exec := db.Executor(ctx, r.pool)
	var conds []string
	var args []any
	if filter.DocType != "" {
		args = append(args, filter.DocType)
		conds = append(conds, fmt.Sprintf("doc_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(doc_no ILIKE $%d OR customer_name ILIKE $%d OR subject ILIKE $%d)", n, n, n))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := exec.QueryRow(ctx, "SELECT COUNT(*) FROM sales_docs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sales_docs %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	list, err := queryDocuments(ctx, exec, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return list, total, nil
}

func (r *repository) Children(ctx context.Context, parentID int64) ([]Document, error) {
	return queryDocuments(ctx, db.Executor(ctx, r.pool),
		`SELECT `+documentColumns+` FROM sales_docs WHERE parent_id = $1 ORDER BY id`, parentID)
}

// ============================================================================
// TRANSACTIONAL WRITES
// ============================================================================

func (t *txRepo) LockNumbering(ctx context.Context, prefix string) error {
	return db.LockKey(ctx, t.tx, "sales_docs:"+prefix)
}

func (t *txRepo) DocNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := t.tx.Query(ctx, `SELECT doc_no FROM sales_docs WHERE doc_no LIKE $1`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("load document numbers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Document, error) {
	return getDocument(ctx, t.tx, `SELECT `+documentColumns+` FROM sales_docs WHERE id = $1 FOR UPDATE`, id)
}

func (t *txRepo) FindChild(ctx context.Context, parentID int64, docType DocType) (*Document, error) {
	d, err := getDocument(ctx, t.tx,
		`SELECT `+documentColumns+` FROM sales_docs WHERE parent_id = $1 AND doc_type = $2`, parentID, docType)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (t *txRepo) Insert(ctx context.Context, d *Document) (int64, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales_docs (doc_type, doc_no, status, issue_date, due_date,
		    customer_id, customer_name, customer_tax_id, customer_address, customer_phone, customer_email,
		    company_name, company_tax_id, company_address, company_phone, company_email, company_website, company_logo_path,
		    subject, description, note, deposit_note, payment_terms,
		    discount_amount, vat_rate, wht_rate, warranty_months, warranty_end_date,
		    parent_id, boq_excel_path, boq_pdf_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		    $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
		RETURNING id, created_at, updated_at`,
		d.DocType, d.DocNo, d.Status, d.IssueDate, d.DueDate,
		d.Customer.CustomerID, d.Customer.Name, d.Customer.TaxID, d.Customer.Address, d.Customer.Phone, d.Customer.Email,
		d.Company.Name, d.Company.TaxID, d.Company.Address, d.Company.Phone, d.Company.Email, d.Company.Website, d.Company.LogoPath,
		d.Subject, d.Description, d.Note, d.DepositNote, d.PaymentTerms,
		d.DiscountAmount, d.VATRate, d.WHTRate, d.WarrantyMonths, d.WarrantyEndDate,
		d.ParentID, d.BOQExcelPath, d.BOQPDFPath,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err)
	}
	if err := t.insertLines(ctx, d.ID, d.Lines); err != nil {
		return 0, err
	}
	return d.ID, nil
}

func (t *txRepo) UpdateHeader(ctx context.Context, d *Document) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sales_docs SET issue_date = $2, due_date = $3,
		    customer_id = $4, customer_name = $5, customer_tax_id = $6, customer_address = $7,
		    customer_phone = $8, customer_email = $9,
		    subject = $10, description = $11, note = $12, deposit_note = $13, payment_terms = $14,
		    discount_amount = $15, vat_rate = $16, wht_rate = $17, warranty_months = $18, warranty_end_date = $19,
		    boq_excel_path = $20, boq_pdf_path = $21, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.IssueDate, d.DueDate,
		d.Customer.CustomerID, d.Customer.Name, d.Customer.TaxID, d.Customer.Address,
		d.Customer.Phone, d.Customer.Email,
		d.Subject, d.Description, d.Note, d.DepositNote, d.PaymentTerms,
		d.DiscountAmount, d.VATRate, d.WHTRate, d.WarrantyMonths, d.WarrantyEndDate,
		d.BOQExcelPath, d.BOQPDFPath)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) ReplaceLines(ctx context.Context, docID int64, lines []Line) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM sales_doc_items WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("clear lines: %w", err)
	}
	return t.insertLines(ctx, docID, lines)
}

func (t *txRepo) insertLines(ctx context.Context, docID int64, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO sales_doc_items (doc_id, description, qty, unit_price, discount_amount, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			docID, l.Description, l.Qty, l.UnitPrice, l.DiscountAmount, l.LineOrder)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

func (t *txRepo) MarkApproved(ctx context.Context, id int64, by string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sales_docs SET status = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`,
		id, StatusApproved, by, at, StatusDraft)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteError translates constraint and serialization failures into the
// sentinels the service retries on.
func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, docNoConstraint):
		return fmt.Errorf("%w: %v", ErrDocNoConflict, err)
	case db.IsUniqueViolation(err, parentTypeConstraint):
		return ErrChildExists
	case db.IsSerializationFailure(err):
		return fmt.Errorf("%w: %v", ErrDocNoConflict, err)
	}
	return err
}
