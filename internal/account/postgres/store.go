// Package postgres は account.Store の PostgreSQL 実装です。
// ユーザー名・メールの一意性はテーブルの UNIQUE 制約で保証します。
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/yourusername/login-system/internal/account"
)

const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
	id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	username      text NOT NULL,
	email         text NOT NULL,
	password_hash text NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now(),
	CONSTRAINT accounts_username_key UNIQUE (username),
	CONSTRAINT accounts_email_key UNIQUE (email)
)`

const selectColumns = `SELECT id::text, username, email, password_hash, created_at FROM accounts`

type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store はアカウントを PostgreSQL に保存します。
type Store struct {
	pool poolIface
}

// New は Store を作成します。
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

// Connect は接続プールを作成して疎通を確認し、スキーマを用意します。
func Connect(ctx context.Context, dsn string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, oops.Code("POSTGRES_CONFIG_INVALID").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, oops.Code("POSTGRES_UNAVAILABLE").Wrap(err)
	}
	store := New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// EnsureSchema は accounts テーブルが無ければ作成します。
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return oops.Code("SCHEMA_BOOTSTRAP_FAILED").With("table", "accounts").Wrap(err)
	}
	return nil
}

// Create はアカウントを挿入し、採番された ID を返します。
func (s *Store) Create(ctx context.Context, in account.NewAccount) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id::text`,
		in.Username, in.Email, in.PasswordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case usernameConstraint:
				return "", &account.DuplicateKeyError{Field: account.FieldUsername}
			case emailConstraint:
				return "", &account.DuplicateKeyError{Field: account.FieldEmail}
			}
			return "", &account.DuplicateKeyError{Field: pgErr.ConstraintName}
		}
		return "", oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", in.Username).
			Wrap(err)
	}
	return id, nil
}

// FindByUsername はユーザー名で検索します。
func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.findOne(ctx, selectColumns+` WHERE username = $1`, "username", username)
}

// FindByEmail はメールアドレスで検索します。
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findOne(ctx, selectColumns+` WHERE email = $1`, "email", email)
}

// FindByID は ID で検索します。UUID として解釈できない ID は該当なしです。
func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, "id", id)
}

func (s *Store) findOne(ctx context.Context, query, field, value string) (*account.Account, error) {
	var acc account.Account
	err := s.pool.QueryRow(ctx, query, value).Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by "+field).
			With(field, value).
			Wrap(err)
	}
	return &acc, nil
}
