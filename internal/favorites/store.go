// Package favorites はユーザーごとのお気に入り記事集合を管理する。
//
// ストアは常に1つのアイデンティティに束縛され、auth.Serviceの
// アイデンティティ変更通知を受けて自身の永続パーティションを
// 再束縛・再読込する。集合の変更は毎回全量スナップショットとして
// 永続化されるため、ストア上のレコードは常に一貫した状態を反映する。
package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kenta/newsstand/internal/model"
	"github.com/kenta/newsstand/internal/repository"
)

// Recorder はお気に入り操作のメトリクス記録インターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type Recorder interface {
	RecordFavoriteAdded()
	RecordFavoriteRemoved()
	RecordCorruptRecord()
}

// Store はお気に入り記事集合のインメモリ正本と永続ミラーを管理する。
// 不変条件: 匿名状態（束縛アイデンティティなし）のとき集合は空。
// 挿入順を保持し、記事IDによる重複追加は無視される。
type Store struct {
	repo     repository.FavoritesRepository
	recorder Recorder

	mu        sync.RWMutex
	userID    string // 束縛中のアイデンティティID。匿名のときは空。
	articles  []model.Article
	index     map[string]int // 記事ID → articlesのインデックス
	loading   bool
	loadError bool // 直近の読込で破損レコードを検出したか（観測用）
}

// NewStore はStoreを生成する。初期状態は読込待ちの空集合。
// auth.Serviceへの購読はOnIdentityChangeをSubscribeに渡して行う。
func NewStore(repo repository.FavoritesRepository) *Store {
	return &Store{
		repo:     repo,
		articles: []model.Article{},
		index:    map[string]int{},
		loading:  true,
	}
}

// SetRecorder はメトリクス記録先を設定する。構築後、操作開始前に1回だけ呼ぶ。
func (s *Store) SetRecorder(r Recorder) {
	s.recorder = r
}

// OnIdentityChange はセッションのアイデンティティ変更に反応する。
// auth.Serviceが遷移コミット直後に同期的に呼び出すため、
// 集合が古いアイデンティティに対して読み書きされることはない。
// 匿名への遷移では永続パーティションに触れずインメモリ集合のみ破棄する。
// 認証済みへの遷移ではそのユーザーのパーティションを読み込む。
// 欠損・破損データは空集合として扱う（fail open）。
func (s *Store) OnIdentityChange(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
	s.loadError = false

	if user == nil {
		s.userID = ""
		s.reset(nil)
		return
	}

	s.userID = user.ID

	articles, err := s.repo.LoadSet(context.Background(), user.ID)
	if err != nil {
		if errors.Is(err, model.ErrCorruptRecord) {
			s.loadError = true
			if s.recorder != nil {
				s.recorder.RecordCorruptRecord()
			}
		} else {
			slog.Error("failed to load favorites",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.reset(nil)
		return
	}

	s.reset(articles)
	slog.Info("favorites loaded",
		slog.String("user_id", user.ID),
		slog.Int("count", len(articles)),
	)
}

// Add は記事スナップショットを集合へ追加し、全量を永続化する。
// 匿名状態では何もしない。既存の記事IDに対しては冪等（重複追加しない）。
func (s *Store) Add(ctx context.Context, article model.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return
	}
	if _, ok := s.index[article.ID]; ok {
		return
	}

	s.index[article.ID] = len(s.articles)
	s.articles = append(s.articles, article)
	s.persist(ctx)

	if s.recorder != nil {
		s.recorder.RecordFavoriteAdded()
	}
}

// Remove は指定IDの記事を集合から除去し、全量を永続化する。
// 匿名状態および未登録IDに対しては何もしない（冪等）。
func (s *Store) Remove(ctx context.Context, articleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return
	}
	pos, ok := s.index[articleID]
	if !ok {
		return
	}

	s.articles = append(s.articles[:pos], s.articles[pos+1:]...)
	delete(s.index, articleID)
	// 除去位置以降のインデックスを詰める
	for i := pos; i < len(s.articles); i++ {
		s.index[s.articles[i].ID] = i
	}
	s.persist(ctx)

	if s.recorder != nil {
		s.recorder.RecordFavoriteRemoved()
	}
}

// IsFavorite は指定IDの記事が集合に含まれるかを返す。永続ストアには触れない。
func (s *Store) IsFavorite(articleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[articleID]
	return ok
}

// List は集合のスナップショットを挿入順で返す。
func (s *Store) List() []model.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// IsLoading は集合が読込待ちかを返す。
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoadError は直近の読込で破損レコードを検出したかを返す。観測用。
// 破損は空集合へのフォールバックとして回復済みであり、呼び出し側の
// 操作（Add/Remove/IsFavorite）には決して失敗として伝播しない。
func (s *Store) LoadError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadError
}

// persist は現在の集合全体を束縛中のパーティションへミラーする。
// 書き込み失敗はログに記録するのみで、インメモリ状態を正とする。
// 呼び出し側がmuを保持していること。
func (s *Store) persist(ctx context.Context) {
	if err := s.repo.SaveSet(ctx, s.userID, s.articles); err != nil {
		slog.Error("failed to persist favorites",
			slog.String("user_id", s.userID),
			slog.String("error", err.Error()),
		)
	}
}

// reset はインメモリ集合を与えられた内容で置き換え、読込完了状態にする。
// 呼び出し側がmuを保持していること。
func (s *Store) reset(articles []model.Article) {
	if articles == nil {
		articles = []model.Article{}
	}
	s.articles = articles
	s.index = make(map[string]int, len(articles))
	for i := range articles {
		s.index[articles[i].ID] = i
	}
	s.loading = false
}
