package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore はプロセス内メモリに保持する Store 実装です（開発・テスト用）。
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Account
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Create はアカウントを追加します。一意性の判定と挿入はロック内で行います。
func (s *MemoryStore) Create(ctx context.Context, in NewAccount) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[in.Username]; ok {
		return "", &DuplicateKeyError{Field: FieldUsername}
	}
	if _, ok := s.byEmail[in.Email]; ok {
		return "", &DuplicateKeyError{Field: FieldEmail}
	}

	id := uuid.NewString()
	s.byID[id] = Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byUsername[in.Username] = id
	s.byEmail[in.Email] = id
	return id, nil
}

// FindByUsername はユーザー名で検索します。
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.byUsername[username]), nil
}

// FindByEmail はメールアドレスで検索します。
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.byEmail[email]), nil
}

// FindByID は ID で検索します。
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id), nil
}

// Len は登録件数を返します。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryStore) lookup(id string) *Account {
	if id == "" {
		return nil
	}
	acc, ok := s.byID[id]
	if !ok {
		return nil
	}
	return &acc
}
