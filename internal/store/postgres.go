package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logistia/einvoice/internal/model"
)

// PostgresRepository is the PostgreSQL implementation of Repository.
//
// Schema (see migrations in deploy/):
//
//	invoices(id, owner, series, sequence, external_reference, status,
//	         transmission_status, doc jsonb, created_at, updated_at)
//	  UNIQUE (owner, series, sequence)
//	  UNIQUE (owner, external_reference) WHERE external_reference <> ''
//	invoice_counters(owner, series, last_value)
//	  PRIMARY KEY (owner, series)
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a repository over an existing pool
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Connect opens a pgx pool against the given database URL
func Connect(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresRepository{db: pool}, nil
}

// CreateInvoice persists a new invoice row
func (r *PostgresRepository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	doc, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}

	query := `INSERT INTO invoices
		(id, owner, series, sequence, external_reference, status, transmission_status, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.Exec(ctx, query,
		inv.ID, inv.Owner, inv.Series, inv.Sequence, inv.ExternalReference,
		string(inv.Status), string(inv.TransmissionStatus), doc,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateInvoice persists the current state of an existing invoice
func (r *PostgresRepository) UpdateInvoice(ctx context.Context, inv *model.Invoice) error {
	doc, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}

	query := `UPDATE invoices
		SET status = $3, transmission_status = $4, doc = $5, updated_at = $6
		WHERE owner = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query,
		inv.Owner, inv.ID, string(inv.Status), string(inv.TransmissionStatus), doc, inv.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetInvoice fetches one invoice by owner and id
func (r *PostgresRepository) GetInvoice(ctx context.Context, owner, id string) (*model.Invoice, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT doc FROM invoices WHERE owner = $1 AND id = $2`, owner, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalInvoice(doc)
}

// ListInvoices returns the owner's invoices, newest first
func (r *PostgresRepository) ListInvoices(ctx context.Context, owner string) ([]model.Invoice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT doc FROM invoices WHERE owner = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		inv, err := unmarshalInvoice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// FindByExternalReference looks up an invoice by originating system
// reference. Used as the advisory idempotency lookup; the unique index
// remains the final arbiter.
func (r *PostgresRepository) FindByExternalReference(ctx context.Context, owner, ref string) (*model.Invoice, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT doc FROM invoices WHERE owner = $1 AND external_reference = $2`, owner, ref).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalInvoice(doc)
}

// NextSequence atomically increments the per-series counter. The
// upsert keeps find-max and increment in a single statement so
// concurrent callers for the same (owner, series) never observe the
// same value.
func (r *PostgresRepository) NextSequence(ctx context.Context, owner, series string) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO invoice_counters (owner, series, last_value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (owner, series)
		 DO UPDATE SET last_value = invoice_counters.last_value + 1
		 RETURNING last_value`,
		owner, series).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Close releases the connection pool
func (r *PostgresRepository) Close() {
	r.db.Close()
}

func unmarshalInvoice(doc []byte) (*model.Invoice, error) {
	var inv model.Invoice
	if err := json.Unmarshal(doc, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice: %w", err)
	}
	return &inv, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
