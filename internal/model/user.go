// Package model はドメインモデルを定義する。
package model

// Preferences はユーザーのニュース嗜好設定を表す。
// 3つのリストはいずれも挿入順を保持し、重複を含まない。
// 重複排除はミューテーター（auth.Service.UpdatePreferences）側で強制される。
type Preferences struct {
	Categories []string `json:"categories"`
	Sources    []string `json:"sources"`
	Keywords   []string `json:"keywords"`
}

// Terms は嗜好設定をフラットな検索語リストに変換する。
// レコメンデーションのプロバイダー呼び出しに使用する。
func (p Preferences) Terms() []string {
	terms := make([]string, 0, len(p.Categories)+len(p.Sources)+len(p.Keywords))
	terms = append(terms, p.Categories...)
	terms = append(terms, p.Sources...)
	terms = append(terms, p.Keywords...)
	return terms
}

// User はサインイン済みユーザーのアカウント情報を表す。
// 認証情報（パスワード）は含まない。IDは作成後に不変で、
// ユーザーごとの永続データのパーティションキーとして使用される。
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Preferences Preferences `json:"preferences"`
}

// Session はプロセス全体で唯一の認証状態を表す。
// 不変条件: IsAuthenticated == (User != nil) がすべての遷移後に成立する。
// IsLoadingはサインイン/サインアップの実行中のみtrueになる。
// Errorは直近の認証操作のユーザー向けエラーメッセージを保持する。
type Session struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}
