// Package textutil 提供行内容校验与人员匹配所需的文本判定。
// 全部为纯函数，不依赖任何运行状态。
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	chineseRE = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)

	// urlRE 与旧实现保持一致：http/https + 域名/localhost/IPv4 + 可选端口。
	urlRE = regexp.MustCompile(`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)
)

// ExtractChineseName 抽取 raw 中的全部汉字段并按原顺序拼接。
// 人员列里常混入工号等非汉字前后缀（例如 "0017-杨华"），匹配人员库前先做
// 该归一化。注意：含汉字的注记会一并保留（"张静(外包)" → "张静外包"）。
func ExtractChineseName(raw string) string {
	parts := chineseRE.FindAllString(raw, -1)
	return strings.Join(parts, "")
}

// ContentLength 返回去除首尾空白后的字符数（按 rune 计，不是字节）。
func ContentLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// HasInvalidCastDelimiter 判断主创名单是否使用了非法分隔符 '-'。
func HasInvalidCastDelimiter(s string) bool {
	return strings.Contains(s, "-")
}

// IsValidURL 判断 s 是否为可下载的 http(s) 地址。
func IsValidURL(s string) bool {
	return urlRE.MatchString(strings.TrimSpace(s))
}
