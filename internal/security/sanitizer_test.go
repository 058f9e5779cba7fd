package security

import (
	"strings"
	"testing"
)

// TestSanitizeHTML_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitizeHTML_AllowedTags(t *testing.T) {
	sanitizer := NewSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>テスト段落</p>",
			wantContains: []string{"<p>テスト段落</p>"},
		},
		{
			name:         "brタグが許可される",
			input:        "行1<br>行2",
			wantContains: []string{"<br>", "行1", "行2"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>項目1</li><li>項目2</li></ul>",
			wantContains: []string{"<ul>", "<li>", "項目1", "項目2", "</li>", "</ul>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>引用テキスト</blockquote>",
			wantContains: []string{"<blockquote>引用テキスト</blockquote>"},
		},
		{
			name:         "preタグとcodeタグが許可される",
			input:        "<pre><code>func main() {}</code></pre>",
			wantContains: []string{"<pre>", "<code>", "func main() {}", "</code>", "</pre>"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>太字</strong>と<em>強調</em>",
			wantContains: []string{"<strong>太字</strong>", "<em>強調</em>"},
		},
		{
			name:         "imgタグがhttps srcで許可される",
			input:        `<img src="https://example.com/image.png" alt="画像">`,
			wantContains: []string{"<img", "src", "https://example.com/image.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeHTML(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("SanitizeHTML(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitizeHTML_DangerousContent は危険なタグと属性が除去されることを検証する。
func TestSanitizeHTML_DangerousContent(t *testing.T) {
	sanitizer := NewSanitizer()

	tests := []struct {
		name  string
		input string
		// 出力に含まれてはならない部分文字列
		wantExcludes []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>本文</p><script>alert("xss")</script>`,
			wantExcludes: []string{"<script", "alert"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<iframe src="https://evil.example.com"></iframe><p>本文</p>`,
			wantExcludes: []string{"<iframe", "evil.example.com"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<style>body { display: none }</style><p>本文</p>`,
			wantExcludes: []string{"<style", "display"},
		},
		{
			name:         "onclickイベント属性が除去される",
			input:        `<p onclick="steal()">本文</p>`,
			wantExcludes: []string{"onclick", "steal"},
		},
		{
			name:         "javascriptスキームのリンクが無害化される",
			input:        `<a href="javascript:alert(1)">リンク</a>`,
			wantExcludes: []string{"javascript:"},
		},
		{
			name:         "httpスキームの画像が除去される",
			input:        `<img src="http://example.com/tracker.gif">`,
			wantExcludes: []string{"http://example.com/tracker.gif"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeHTML(tt.input)
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("SanitizeHTML(%q) = %q, should not contain %q", tt.input, got, exclude)
				}
			}
		})
	}
}

// TestSanitizeHTML_LinkAttributes はリンクに安全な属性が強制されることを検証する。
func TestSanitizeHTML_LinkAttributes(t *testing.T) {
	sanitizer := NewSanitizer()

	got := sanitizer.SanitizeHTML(`<a href="https://example.com/article">記事</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("SanitizeHTML() = %q, expected target=_blank to be enforced", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("SanitizeHTML() = %q, expected noreferrer noopener rel", got)
	}
}

// TestSanitizeHTML_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitizeHTML_Idempotent(t *testing.T) {
	sanitizer := NewSanitizer()
	input := `<p>本文</p><script>alert(1)</script><strong>強調</strong>`

	first := sanitizer.SanitizeHTML(input)
	second := sanitizer.SanitizeHTML(first)

	if first != second {
		t.Errorf("SanitizeHTML is not idempotent: first = %q, second = %q", first, second)
	}
}

// TestPlainText はHTMLから全タグが除去されることを検証する。
func TestPlainText(t *testing.T) {
	sanitizer := NewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "タグが除去される",
			input: "<p>段落の<strong>本文</strong>です</p>",
			want:  "段落の本文です",
		},
		{
			name:  "連続する空白が1つにまとめられる",
			input: "<p>First   paragraph</p>\n\n<p>Second paragraph</p>",
			want:  "First paragraph Second paragraph",
		},
		{
			name:  "空文字列には空文字列を返す",
			input: "",
			want:  "",
		},
		{
			name:  "scriptの中身も除去される",
			input: `Intro<script>alert(1)</script>`,
			want:  "Intro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
