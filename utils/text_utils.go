package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// koreanStopwords 韩语停用词
var koreanStopwords = map[string]bool{
	"이": true, "가": true, "을": true, "를": true, "의": true, "에": true, "에서": true,
	"와": true, "과": true, "도": true, "로": true, "으로": true, "은": true, "는": true,
	"이다": true, "있다": true, "하다": true, "되다": true, "그": true, "것": true,
	"수": true, "등": true, "및": true, "또한": true, "또": true, "그리고": true,
	"하지만": true, "그러나": true, "그런데": true, "그래서": true, "따라서": true,
}

// DeduplicateSlice 去重字符串切片
func DeduplicateSlice(input []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, val := range input {
		val = strings.TrimSpace(val)
		if val != "" && !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}

	return result
}

// FoldText NFC 规范化并转小写，用于关键词子串匹配
func FoldText(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

// CleanHTML 去除HTML标签
func CleanHTML(text string) string {
	if text == "" {
		return ""
	}
	return htmlTagPattern.ReplaceAllString(text, "")
}

// RemoveSpecialChars 特殊符号替换为空格，只保留字母（含韩文）、数字、下划线和空白
func RemoveSpecialChars(text string) string {
	var result strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			result.WriteRune(r)
		} else {
			result.WriteRune(' ')
		}
	}
	return result.String()
}

// NormalizeText HTML清理 + 特殊符号清理 + 合并空白
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = CleanHTML(text)
	text = RemoveSpecialChars(text)
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(text, " "))
}

// ExtractKeywords 提取关键词：小写、去停用词、按字符数过滤
func ExtractKeywords(text string, minLength int) []string {
	normalized := strings.ToLower(NormalizeText(text))
	if normalized == "" {
		return nil
	}

	var keywords []string
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) < minLength || koreanStopwords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// TokenSet 文本分词后的集合
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range ExtractKeywords(text, 2) {
		set[w] = struct{}{}
	}
	return set
}

// SplitTags 拆分逗号分隔的标签
func SplitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	return DeduplicateSlice(strings.Split(tags, ","))
}
