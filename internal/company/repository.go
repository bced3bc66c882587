package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecost/sitecost/internal/platform/db"
)

// Repository reads and writes the singleton row (id = 1).
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p Profile) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Get returns nil when the profile has never been saved.
func (r *repository) Get(ctx context.Context) (*Profile, error) {
	var p Profile
	err := db.Executor(ctx, r.pool).QueryRow(ctx, `
		SELECT company_name, tax_id, address, phone, email, website, logo_path,
		       payment_bank, payment_account_no, payment_account_name, payment_branch, updated_at
		FROM company_profiles WHERE id = 1`,
	).Scan(&p.Name, &p.TaxID, &p.Address, &p.Phone, &p.Email, &p.Website, &p.LogoPath,
		&p.PaymentBank, &p.PaymentAccountNo, &p.PaymentAccountName, &p.PaymentBranch, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Save(ctx context.Context, p Profile) error {
	_, err := db.Executor(ctx, r.pool).Exec(ctx, `
		INSERT INTO company_profiles (id, company_name, tax_id, address, phone, email, website, logo_path,
		    payment_bank, payment_account_no, payment_account_name, payment_branch, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
		    company_name = EXCLUDED.company_name, tax_id = EXCLUDED.tax_id, address = EXCLUDED.address,
		    phone = EXCLUDED.phone, email = EXCLUDED.email, website = EXCLUDED.website,
		    logo_path = EXCLUDED.logo_path, payment_bank = EXCLUDED.payment_bank,
		    payment_account_no = EXCLUDED.payment_account_no,
		    payment_account_name = EXCLUDED.payment_account_name,
		    payment_branch = EXCLUDED.payment_branch, updated_at = NOW()`,
		p.Name, p.TaxID, p.Address, p.Phone, p.Email, p.Website, p.LogoPath,
		p.PaymentBank, p.PaymentAccountNo, p.PaymentAccountName, p.PaymentBranch)
	return err
}
