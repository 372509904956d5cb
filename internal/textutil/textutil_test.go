package textutil

import "testing"

func TestExtractChineseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"张静", "张静"},
		{"0017-杨华", "杨华"},
		{"杨华（审核）", "杨华审核"}, // 全部汉字段拼接，含汉字的注记一并保留
		{"Zhang张Jing静", "张静"},
		{"abc123", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ExtractChineseName(c.in); got != c.want {
			t.Fatalf("ExtractChineseName(%q)=%q，期望 %q", c.in, got, c.want)
		}
	}
}

func TestContentLength(t *testing.T) {
	if got := ContentLength("  你好世界  "); got != 4 {
		t.Fatalf("按 rune 计数失败：got=%d want=4", got)
	}
	if got := ContentLength("   "); got != 0 {
		t.Fatalf("纯空白应为 0：got=%d", got)
	}
}

func TestHasInvalidCastDelimiter(t *testing.T) {
	if !HasInvalidCastDelimiter("张三-李四") {
		t.Fatalf("'-' 分隔应判定为非法")
	}
	if HasInvalidCastDelimiter("张三、李四") {
		t.Fatalf("顿号分隔不应判定为非法")
	}
}

func TestIsValidURL(t *testing.T) {
	valid := []string{
		"https://example.com/a.jpg",
		"http://localhost:8080/x",
		"https://img.example.com.cn/path?x=1",
		"  https://example.com/a.png  ",
		"http://10.0.0.1/img",
	}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Fatalf("应判定为有效 URL：%q", u)
		}
	}
	invalid := []string{
		"",
		"ftp://example.com/a.jpg",
		"example.com/a.jpg",
		"https://",
		"不是链接",
	}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Fatalf("应判定为无效 URL：%q", u)
		}
	}
}
