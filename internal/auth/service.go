// Package auth はセッションのライフサイクル管理を提供する。
//
// プロセス全体で唯一のセッション状態（model.Session）を所有し、
// サインイン・サインアップ・サインアウト・嗜好設定更新の各操作と、
// プロセス再起動をまたいだセッションの復元を実装する。
// 状態遷移のコミット後、登録済みのリスナーを同期的に呼び出すことで、
// お気に入りストアが古いアイデンティティに対して読み書きしないことを保証する。
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kenta/newsstand/internal/model"
	"github.com/kenta/newsstand/internal/repository"
)

// IdentityListener はアイデンティティ変更の通知を受け取るコールバック。
// 引数は新しいアイデンティティ（匿名の場合はnil）。
// セッション操作と同一ゴルーチン上で、遷移コミット直後に呼び出される。
type IdentityListener func(user *model.User)

// Recorder は認証操作のメトリクス記録インターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type Recorder interface {
	RecordSignInSuccess()
	RecordSignInFailure()
	RecordSignUp()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// SimulatedDelay はサインイン/サインアップ時に模擬する
	// ネットワーク往復の遅延。テストでは0を指定する。
	SimulatedDelay time.Duration
}

// Service はセッション管理のサービス層。
// サインイン/サインアップは操作全体（模擬遅延を含む）をミューテックスで
// 直列化し、重複呼び出しは先着の結果が確定した状態の上に適用される。
// 状態の読み書きは別の短期ロックで保護するため、操作の実行中でも
// Session()でloading状態を観測できる。
type Service struct {
	sessionRepo repository.SessionRecordRepository
	registry    CredentialRegistry
	config      ServiceConfig
	recorder    Recorder

	opMu sync.Mutex // サインイン/サインアップの直列化

	stateMu     sync.RWMutex
	state       model.Session
	initialized bool // 最初のcommitが完了したか（復元前はfalse）
	listeners   []IdentityListener
}

// NewService はServiceを生成する。
// 初期状態は「復元待ち」（isLoading=true、匿名）で、
// RestoreSessionの呼び出しによって定常状態へ遷移する。
func NewService(
	sessionRepo repository.SessionRecordRepository,
	registry CredentialRegistry,
	config ServiceConfig,
) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		registry:    registry,
		config:      config,
		state: model.Session{
			IsLoading: true,
		},
	}
}

// SetRecorder はメトリクス記録先を設定する。構築後、操作開始前に1回だけ呼ぶ。
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// Subscribe はアイデンティティ変更リスナーを登録する。
// 構築直後、操作開始前に呼ぶこと。登録順に同期的に呼び出される。
func (s *Service) Subscribe(listener IdentityListener) {
	s.listeners = append(s.listeners, listener)
}

// Session は現在のセッション状態のスナップショットを返す。
func (s *Service) Session() model.Session {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// RestoreSession は永続ストアからセッションを復元する。起動時に1回呼ぶ。
// レコードが存在し整形式なら認証済み状態へ、そうでなければ匿名状態へ遷移する。
// 破損レコードや読み取り失敗は匿名へのフォールバックとして扱い、エラーは返さない。
func (s *Service) RestoreSession(ctx context.Context) {
	user, err := s.sessionRepo.Load(ctx)
	if err != nil {
		// 破損・読み取り失敗は「レコード不在」として扱う（fail open）
		slog.Warn("session restore failed, starting anonymous",
			slog.String("error", err.Error()),
		)
		s.commit(model.Session{})
		return
	}

	if user == nil {
		s.commit(model.Session{})
		return
	}

	slog.Info("session restored",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	s.commit(model.Session{User: user, IsAuthenticated: true})
}

// SignIn は認証情報を照合してセッションを確立する。
// 照合はメールアドレス・パスワードともに完全一致（大文字小文字を区別）。
// 成功時はパスワードを除いたアイデンティティを永続化し認証済み状態へ遷移する。
// 失敗時は以前のアイデンティティを破棄して匿名状態へ遷移し、
// セッションのerrorフィールドに "Invalid credentials" を設定する。
// いずれの場合もエラーはセッション状態として完結し、リトライは行わない。
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOperation()

	// ネットワーク往復の模擬（固定上限の協調的待機、キャンセル非対応）
	s.simulateRoundTrip()

	cred, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("credential lookup failed", slog.String("error", err.Error()))
		cred = nil
	}

	if cred == nil || cred.Password != password {
		apiErr := model.NewInvalidCredentialsError()
		s.commit(model.Session{Error: apiErr.Message})
		if s.recorder != nil {
			s.recorder.RecordSignInFailure()
		}
		slog.Info("sign-in rejected", slog.String("email", email))
		return apiErr
	}

	// パスワードを除いたアイデンティティを永続化
	user := cred.User
	s.persist(ctx, &user)

	s.commit(model.Session{User: &user, IsAuthenticated: true})
	if s.recorder != nil {
		s.recorder.RecordSignInSuccess()
	}
	slog.Info("user signed in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return nil
}

// SignUp は新規アカウントを作成しセッションを確立する。
// メールアドレスがレジストリに既に存在する場合は
// セッションのerrorフィールドに "User already exists" を設定し、
// 既存のアイデンティティには触れない（loadingのみ解除）。
// 成功時は空の嗜好設定と新規生成IDを持つアイデンティティを合成し、
// レジストリへ登録したうえで永続化して認証済み状態へ遷移する。
func (s *Service) SignUp(ctx context.Context, name, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOperation()

	s.simulateRoundTrip()

	user := model.User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: email,
		Preferences: model.Preferences{
			Categories: []string{},
			Sources:    []string{},
			Keywords:   []string{},
		},
	}

	if err := s.registry.Register(ctx, Credential{User: user, Password: password}); err != nil {
		apiErr := model.NewUserAlreadyExistsError()
		s.failKeepingIdentity(apiErr.Message)
		slog.Info("sign-up rejected: email taken", slog.String("email", email))
		return apiErr
	}

	s.persist(ctx, &user)

	s.commit(model.Session{User: &user, IsAuthenticated: true})
	if s.recorder != nil {
		s.recorder.RecordSignUp()
	}
	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return nil
}

// SignOut は永続レコードを削除し、無条件に匿名状態へ遷移する。冪等。
func (s *Service) SignOut(ctx context.Context) {
	if err := s.sessionRepo.Delete(ctx); err != nil {
		// 削除失敗でもインメモリ状態は匿名へ遷移させる
		slog.Error("failed to delete session record", slog.String("error", err.Error()))
	}

	s.commit(model.Session{})
	slog.Info("user signed out")
}

// UpdatePreferences は現在のアイデンティティの嗜好設定を置き換えて永続化する。
// 匿名状態では何もしない。各リストは挿入順を保持したまま重複を除去する。
// アイデンティティのIDは変わらないため、リスナーへの通知は発生しない。
func (s *Service) UpdatePreferences(ctx context.Context, prefs model.Preferences) {
	s.stateMu.RLock()
	current := s.state.User
	s.stateMu.RUnlock()

	if current == nil {
		return
	}

	updated := *current
	updated.Preferences = model.Preferences{
		Categories: dedupe(prefs.Categories),
		Sources:    dedupe(prefs.Sources),
		Keywords:   dedupe(prefs.Keywords),
	}

	s.persist(ctx, &updated)

	next := s.Session()
	next.User = &updated
	s.commit(next)
	slog.Info("preferences updated", slog.String("user_id", updated.ID))
}

// persist はアイデンティティを永続ストアへミラーする。
// 書き込み失敗はログに記録するのみで、インメモリ状態を正とする。
func (s *Service) persist(ctx context.Context, user *model.User) {
	if err := s.sessionRepo.Save(ctx, user); err != nil {
		slog.Error("failed to persist session record",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// beginOperation はloadingフラグを立て、直前のエラーをクリアする。
// アイデンティティは変更しないためリスナーへは通知しない。
func (s *Service) beginOperation() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state.IsLoading = true
	s.state.Error = ""
}

// failKeepingIdentity は既存アイデンティティを維持したまま
// loadingを解除し、エラーメッセージを設定する。
func (s *Service) failKeepingIdentity(message string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state.IsLoading = false
	s.state.Error = message
}

// commit は次のセッション状態を確定し、アイデンティティが変化した場合に
// 登録済みリスナーを同期的に呼び出す。復元直後の最初のコミットは
// Initializing→Anonymous遷移でも通知し、お気に入りストアを定常状態に入れる。
// IsAuthenticatedはUserの有無から導出し、不変条件を構造的に保証する。
func (s *Service) commit(next model.Session) {
	next.IsAuthenticated = next.User != nil

	s.stateMu.Lock()
	prev := s.state.User
	first := !s.initialized
	s.initialized = true
	s.state = next
	s.stateMu.Unlock()

	if first || identityChanged(prev, next.User) {
		for _, listener := range s.listeners {
			listener(next.User)
		}
	}
}

// identityChanged はアイデンティティの有無またはIDが変化したかを判定する。
func identityChanged(prev, next *model.User) bool {
	if (prev == nil) != (next == nil) {
		return true
	}
	return prev != nil && prev.ID != next.ID
}

// simulateRoundTrip は固定上限のネットワーク遅延を模擬する。
func (s *Service) simulateRoundTrip() {
	if s.config.SimulatedDelay > 0 {
		time.Sleep(s.config.SimulatedDelay)
	}
}

// dedupe は挿入順を保持したまま重複要素を除去する。
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
