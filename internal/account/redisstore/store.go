// Package redisstore はアカウントを Redis 上の JSON ドキュメントとして保存します。
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/yourusername/login-system/internal/account"
)

const (
	accountKeyPrefix  = "account:id:"
	usernameKeyPrefix = "account:username:"
	emailKeyPrefix    = "account:email:"
)

// createScript はユーザー名・メールの索引キーの存在確認とドキュメント保存を1回で行います。
// KEYS: [1]=ドキュメント, [2]=ユーザー名索引, [3]=メール索引
// ARGV: [1]=ID, [2]=JSON
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 'username' end
if redis.call('EXISTS', KEYS[3]) == 1 then return 'email' end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[3], ARGV[1])
return 'ok'
`)

// Store はアカウントを Redis に保存します。
type Store struct {
	rdb *redis.Client
}

// New は Store を作成します。
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect は URL から Redis クライアントを作成し、疎通を確認します。
func Connect(ctx context.Context, rawURL string) (*Store, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, oops.Code("REDIS_URL_INVALID").Wrap(err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, oops.Code("REDIS_UNAVAILABLE").With("addr", opt.Addr).Wrap(err)
	}
	return New(rdb), nil
}

// Close はクライアントを閉じます。
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Create はアカウントを保存し、採番した ID を返します。
func (s *Store) Create(ctx context.Context, in account.NewAccount) (string, error) {
	id := uuid.NewString()
	doc := account.Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(&doc)
	if err != nil {
		return "", oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "marshal account").Wrap(err)
	}

	keys := []string{accountKey(id), usernameKey(in.Username), emailKey(in.Email)}
	res, err := createScript.Run(ctx, s.rdb, keys, id, payload).Text()
	if err != nil {
		return "", oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "create script").
			With("username", in.Username).
			Wrap(err)
	}

	switch res {
	case "ok":
		return id, nil
	case account.FieldUsername, account.FieldEmail:
		return "", &account.DuplicateKeyError{Field: res}
	default:
		return "", oops.Code("ACCOUNT_CREATE_FAILED").Errorf("unexpected script result: %s", res)
	}
}

// FindByUsername はユーザー名で検索します。
func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.findByIndex(ctx, usernameKey(username))
}

// FindByEmail はメールアドレスで検索します。
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findByIndex(ctx, emailKey(email))
}

// FindByID は ID で検索します。形式が不正な ID は該当なしとして扱います。
func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("id", id).Wrap(err)
	}
	var acc account.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, oops.Code("ACCOUNT_DECODE_FAILED").With("id", id).Wrap(err)
	}
	return &acc, nil
}

func (s *Store) findByIndex(ctx context.Context, key string) (*account.Account, error) {
	id, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("key", key).Wrap(err)
	}
	return s.FindByID(ctx, id)
}

func accountKey(id string) string {
	return accountKeyPrefix + id
}

func usernameKey(username string) string {
	return usernameKeyPrefix + username
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}
