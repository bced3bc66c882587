package withholding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecost/sitecost/internal/platform/db"
)

const docNoConstraint = "ux_wht_certificates_doc_no"

// Repository persists certificates. Methods join the transaction carried by ctx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
	// LockNumbering must be called inside WithTx.
	LockNumbering(ctx context.Context, prefix string) error
	DocNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, id int64) (*Certificate, error)
	List(ctx context.Context, filter ListFilter) ([]Certificate, error)
	Insert(ctx context.Context, c *Certificate) (int64, error)
	Update(ctx context.Context, c *Certificate) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return db.WithTxIsolation(ctx, r.pool, pgx.ReadCommitted, func(ctx context.Context, _ pgx.Tx) error {
		return fn(ctx)
	})
}

func (r *repository) LockNumbering(ctx context.Context, prefix string) error {
	return db.LockKey(ctx, db.Executor(ctx, r.pool), "wht_certificates:"+prefix)
}

func (r *repository) DocNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := db.Executor(ctx, r.pool).Query(ctx,
		`SELECT doc_no FROM wht_certificates WHERE doc_no LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

const certificateColumns = `id, doc_no, form_type, payee_kind, payee_name, payee_tax_id, payee_address,
	payer_name, payer_tax_id, payer_address, payer_branch_no, payment_date, income_type, description,
	base_amount, wht_rate, wht_amount, note, is_active, created_at, updated_at`

func scanCertificate(row pgx.Row) (Certificate, error) {
	var c Certificate
	err := row.Scan(&c.ID, &c.DocNo, &c.FormType, &c.PayeeKind, &c.Payee.Name, &c.Payee.TaxID,
		&c.Payee.Address, &c.Payer.Name, &c.Payer.TaxID, &c.Payer.Address, &c.PayerBranchNo,
		&c.PaymentDate, &c.IncomeType, &c.Description, &c.BaseAmount, &c.WHTRate, &c.WHTAmount,
		&c.Note, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Certificate, error) {
	c, err := scanCertificate(db.Executor(ctx, r.pool).QueryRow(ctx,
		`SELECT `+certificateColumns+` FROM wht_certificates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Certificate, error) {
	sql := `SELECT ` + certificateColumns + ` FROM wht_certificates`
	args := []any{}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		sql += ` WHERE doc_no ILIKE $1 OR payer_name ILIKE $1 OR payee_name ILIKE $1`
	}
	args = append(args, filter.Limit)
	sql += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d`, len(args))

	rows, err := db.Executor(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, c *Certificate) (int64, error) {
	var id int64
	err := db.Executor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO wht_certificates (doc_no, form_type, payee_kind, payee_name, payee_tax_id,
			payee_address, payer_name, payer_tax_id, payer_address, payer_branch_no, payment_date,
			income_type, description, base_amount, wht_rate, wht_amount, note, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		c.DocNo, c.FormType, c.PayeeKind, c.Payee.Name, c.Payee.TaxID, c.Payee.Address,
		c.Payer.Name, c.Payer.TaxID, c.Payer.Address, c.PayerBranchNo, c.PaymentDate,
		c.IncomeType, c.Description, c.BaseAmount, c.WHTRate, c.WHTAmount, c.Note, c.IsActive,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, docNoConstraint) {
			return 0, ErrDocNoConflict
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites everything except the number and the payer snapshot.
func (r *repository) Update(ctx context.Context, c *Certificate) error {
	tag, err := db.Executor(ctx, r.pool).Exec(ctx, `
		UPDATE wht_certificates SET form_type = $2, payee_kind = $3, payee_name = $4,
			payee_tax_id = $5, payee_address = $6, payment_date = $7, income_type = $8,
			description = $9, base_amount = $10, wht_rate = $11, wht_amount = $12, note = $13,
			is_active = $14, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.FormType, c.PayeeKind, c.Payee.Name, c.Payee.TaxID, c.Payee.Address,
		c.PaymentDate, c.IncomeType, c.Description, c.BaseAmount, c.WHTRate, c.WHTAmount,
		c.Note, c.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
