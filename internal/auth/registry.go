package auth

import (
	"context"
	"sync"

	"github.com/kenta/newsstand/internal/model"
)

// Credential は認証情報付きのアカウントレコードを表す。
// Passwordはレジストリ内部にのみ存在し、セッション層には渡らない。
type Credential struct {
	User     model.User
	Password string
}

// CredentialRegistry は認証情報ストアのインターフェース。
// モック実装を本物の認証基盤に差し替えられるよう抽象化する。
// 照合はメールアドレスの完全一致（大文字小文字を区別）で行う。
type CredentialRegistry interface {
	// FindByEmail は指定メールアドレスの認証情報を取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*Credential, error)

	// Register は新しい認証情報を登録する。
	// 同一メールアドレスが既に存在する場合はmodel.ErrCodeUserAlreadyExistsのAPIErrorを返す。
	Register(ctx context.Context, cred Credential) error
}

// MemoryRegistry はインメモリのモック認証情報レジストリ。
// デモ用アカウントをシードした状態で生成される。
type MemoryRegistry struct {
	mu    sync.RWMutex
	creds []Credential
}

// NewMemoryRegistry はデモアカウント入りのMemoryRegistryを生成する。
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		creds: []Credential{
			{
				User: model.User{
					ID:    "1",
					Name:  "Demo User",
					Email: "demo@example.com",
					Preferences: model.Preferences{
						Categories: []string{"technology", "science"},
						Sources:    []string{"Tech Today", "Space News"},
						Keywords:   []string{"AI", "innovation"},
					},
				},
				Password: "password123",
			},
		},
	}
}

// FindByEmail は指定メールアドレスの認証情報を取得する。見つからない場合はnilを返す。
func (r *MemoryRegistry) FindByEmail(_ context.Context, email string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.creds {
		if r.creds[i].User.Email == email {
			cred := r.creds[i]
			return &cred, nil
		}
	}
	return nil, nil
}

// Register は新しい認証情報を登録する。メールアドレス重複時はエラーを返す。
func (r *MemoryRegistry) Register(_ context.Context, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.creds {
		if r.creds[i].User.Email == cred.User.Email {
			return model.NewUserAlreadyExistsError()
		}
	}
	r.creds = append(r.creds, cred)
	return nil
}

// compile-time interface check
var _ CredentialRegistry = (*MemoryRegistry)(nil)
