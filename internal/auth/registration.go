package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourusername/login-system/internal/account"
)

// 重複時のメッセージ
const (
	MsgUsernameTaken = "Username already in use. Please choose a different one."
	MsgEmailTaken    = "Email already in use. Please choose a different one."
)

// Registrar はアカウント登録フローを実行します。
type Registrar struct {
	store   account.Store
	hasher  Hasher
	metrics *Metrics
	logger  *slog.Logger
}

// NewRegistrar は Registrar を作成します。metrics と logger は nil でも構いません。
func NewRegistrar(store account.Store, hasher Hasher, metrics *Metrics, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{store: store, hasher: hasher, metrics: metrics, logger: logger}
}

// Register は入力を検証し、アカウントを作成します。
//
// 返すエラーは *ValidationError（形式エラー、ストアには触れない）、
// *ConflictError（ユーザー名・メール重複）、*StorageError、またはハッシュ化失敗です。
func (r *Registrar) Register(ctx context.Context, in RegistrationInput) (*account.Account, error) {
	in.Username = account.NormalizeUsername(in.Username)
	in.Email = account.NormalizeEmail(in.Email)

	verr := validateStruct(in)
	if len(in.Password) > MaxPasswordBytes {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Add(FieldPassword, fmt.Sprintf("Password must be at most %d bytes.", MaxPasswordBytes))
	}
	if !verr.Empty() {
		r.metrics.registration(resultInvalid)
		return nil, verr
	}

	// 事前チェックは分かりやすいメッセージのためだけに行い、最終判定はストアの一意制約に任せる
	conflict := &ConflictError{}
	existing, err := r.store.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, r.storageFailure("find by username", err)
	}
	if existing != nil {
		conflict.Add(FieldUsername, MsgUsernameTaken)
	}
	existing, err = r.store.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, r.storageFailure("find by email", err)
	}
	if existing != nil {
		conflict.Add(FieldEmail, MsgEmailTaken)
	}
	if !conflict.Empty() {
		r.metrics.registration(resultConflict)
		return nil, conflict
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		r.metrics.registration(resultError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := r.store.Create(ctx, account.NewAccount{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		var dup *account.DuplicateKeyError
		if errors.As(err, &dup) {
			r.metrics.registration(resultConflict)
			r.logger.Info("registration lost uniqueness race", "field", dup.Field)
			return nil, conflictFor(dup.Field)
		}
		return nil, r.storageFailure("create", err)
	}

	r.metrics.registration(resultSuccess)
	r.logger.Info("account created", "account_id", id, "username", in.Username)
	return &account.Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}, nil
}

func (r *Registrar) storageFailure(op string, err error) error {
	r.metrics.registration(resultError)
	r.logger.Error("account store failure during registration", "op", op, "error", err)
	return &StorageError{Op: op, Err: err}
}

func conflictFor(field string) *ConflictError {
	conflict := &ConflictError{}
	switch field {
	case account.FieldUsername:
		conflict.Add(FieldUsername, MsgUsernameTaken)
	case account.FieldEmail:
		conflict.Add(FieldEmail, MsgEmailTaken)
	default:
		conflict.Add("form", "That account already exists.")
	}
	return conflict
}
