package news

import "strings"

// wordsPerMinute は読了時間算出に用いる1分あたりの語数。
const wordsPerMinute = 200

// ReadingTimeMinutes は本文テキストの読了時間（分）を切り上げで返す。
// 空テキストは0分。
func ReadingTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
