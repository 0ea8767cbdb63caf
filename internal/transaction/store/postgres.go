package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
)

const uniqueViolation = "23505"

// PostgresStore is the durable transaction table.
//
// Schema:
//
//	CREATE TABLE transactions (
//	    id           BIGSERIAL PRIMARY KEY,
//	    trade_no     VARCHAR(18) NOT NULL UNIQUE,
//	    account_no   VARCHAR(64) NOT NULL,
//	    account_name VARCHAR(128) NOT NULL,
//	    payee_no     VARCHAR(64) NOT NULL,
//	    payee_name   VARCHAR(128) NOT NULL,
//	    amount       NUMERIC(19,2) NOT NULL,
//	    currency     CHAR(3) NOT NULL,
//	    tx_type      VARCHAR(8) NOT NULL,
//	    debit_credit VARCHAR(2) NOT NULL,
//	    status       VARCHAR(1) NOT NULL,
//	    description  VARCHAR(500) NOT NULL DEFAULT '',
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pooled connection and verifies it is reachable.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const txColumns = `id, trade_no, account_no, account_name, payee_no, payee_name,
	amount, currency, tx_type, debit_credit, status, description, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (entity.Transaction, error) {
	var tx entity.Transaction
	var updatedAt sql.NullTime

	err := row.Scan(
		&tx.ID, &tx.TradeNo, &tx.AccountNumber, &tx.AccountName,
		&tx.PayeeAccount, &tx.PayeeName, &tx.Amount, &tx.Currency,
		&tx.Type, &tx.DebitCredit, &tx.Status, &tx.Description,
		&tx.CreatedAt, &updatedAt,
	)
	if err != nil {
		return entity.Transaction{}, err
	}

	if updatedAt.Valid {
		t := updatedAt.Time
		tx.UpdatedAt = &t
	}

	return tx, nil
}

func (s *PostgresStore) Insert(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	const q = `INSERT INTO transactions
		(trade_no, account_no, account_name, payee_no, payee_name,
		 amount, currency, tx_type, debit_credit, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, q,
		tx.TradeNo, tx.AccountNumber, tx.AccountName, tx.PayeeAccount, tx.PayeeName,
		tx.Amount, tx.Currency, tx.Type, tx.DebitCredit, tx.Status, tx.Description,
		tx.CreatedAt, nullTime(tx.UpdatedAt),
	).Scan(&tx.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return entity.Transaction{}, pkgerror.ErrDuplicateTradeNo
		}
		return entity.Transaction{}, err
	}

	return tx, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (entity.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Transaction{}, pkgerror.ErrNotFound
		}
		return entity.Transaction{}, err
	}

	return tx, nil
}

func (s *PostgresStore) FindByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE trade_no = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, q, tradeNo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Transaction{}, pkgerror.ErrNotFound
		}
		return entity.Transaction{}, err
	}

	return tx, nil
}

func (s *PostgresStore) Save(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	const q = `UPDATE transactions SET
		account_no = $2, account_name = $3, payee_no = $4, payee_name = $5,
		amount = $6, currency = $7, tx_type = $8, debit_credit = $9,
		status = $10, description = $11, updated_at = $12
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, q,
		tx.ID, tx.AccountNumber, tx.AccountName, tx.PayeeAccount, tx.PayeeName,
		tx.Amount, tx.Currency, tx.Type, tx.DebitCredit, tx.Status, tx.Description,
		nullTime(tx.UpdatedAt),
	)
	if err != nil {
		return entity.Transaction{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return entity.Transaction{}, err
	}
	if affected == 0 {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}

	return tx, nil
}

func (s *PostgresStore) Delete(ctx context.Context, tx entity.Transaction) error {
	const q = `DELETE FROM transactions WHERE id = $1`

	result, err := s.db.ExecContext(ctx, q, tx.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerror.ErrNotFound
	}

	return nil
}

func (s *PostgresStore) FindAllOrdered(ctx context.Context, page, size int) (entity.Page, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return entity.Page{}, err
	}

	q := `SELECT ` + txColumns + ` FROM transactions
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, q, size, page*size)
	if err != nil {
		return entity.Page{}, err
	}
	defer rows.Close()

	items := make([]entity.Transaction, 0, size)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return entity.Page{}, err
		}
		items = append(items, tx)
	}
	if err := rows.Err(); err != nil {
		return entity.Page{}, err
	}

	return entity.NewPage(items, page, size, total), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
