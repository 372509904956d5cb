// Package update 实现启动时的版本检查（非强制，失败静默降级）。
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// VersionURL 是发布渠道的版本描述文件地址。
const VersionURL = "https://raw.githubusercontent.com/LinNlc/-URL-/main/version.json"

// Info 是 version.json 的解析结构。
type Info struct {
	Version string `json:"version"`
	Notes   string `json:"notes,omitempty"`
	URL     string `json:"url,omitempty"`
}

// FetchLatest 拉取并解析最新版本描述。
func FetchLatest(ctx context.Context, client *http.Client) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, VersionURL, nil)
	if err != nil {
		return Info{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("版本检查返回 HTTP %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(b, &info); err != nil {
		return Info{}, fmt.Errorf("version.json 解析失败：%w", err)
	}
	if strings.TrimSpace(info.Version) == "" {
		return Info{}, fmt.Errorf("version.json 缺少 version 字段")
	}
	return info, nil
}

// Newer 判断 latest 是否比 current 新（按点分数字段比较，非数字段按 0）。
func Newer(latest, current string) bool {
	ls := segments(latest)
	cs := segments(current)
	n := len(ls)
	if len(cs) > n {
		n = len(cs)
	}
	for i := 0; i < n; i++ {
		l, c := 0, 0
		if i < len(ls) {
			l = ls[i]
		}
		if i < len(cs) {
			c = cs[i]
		}
		if l != c {
			return l > c
		}
	}
	return false
}

func segments(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
