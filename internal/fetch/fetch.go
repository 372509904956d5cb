// Package fetch 实现图片批量下载：固定大小 worker 池并发拉取，
// 结果按行号收集，完成顺序与最终摆放顺序无关。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LinNlc/mdxl/internal/domain"
	"github.com/LinNlc/mdxl/internal/infra/imgx"
)

// 防御异常大图：超过该大小直接判失败（正常封面远小于此）。
const maxBodyBytes = 32 << 20

// Task 是一次下载任务：行号 + 该行 URL 列的地址。
type Task struct {
	Row int
	URL string
}

// Outcome 是单行的下载结果：要么是已缩放的 JPEG 负载，要么是结构化失败原因。
// 一次批处理运行内创建、嵌入时消费一次、运行结束即丢弃。
type Outcome struct {
	Row int

	// Data 为已缩放 JPEG；失败时为 nil。
	Data []byte

	ErrorCode string
	ErrorMsg  string

	Dur time.Duration
}

func (o Outcome) OK() bool { return o.ErrorCode == "" }

// Options 控制一次批量下载。
type Options struct {
	// Workers 是 worker 池大小（≥1）。
	Workers int
	// MaxWidth/MaxHeight 是缩放目标（等比缩放边界）。
	MaxWidth  int
	MaxHeight int
}

// ProgressFunc 在每个任务完成（成功或失败）时回调。
// 回调发生在收集 goroutine 上，天然串行，无需加锁。
type ProgressFunc func(done, total int, o Outcome)

// HTTPStatusError 表示 HTTP 非 2xx 响应。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// Fetch 并发下载全部任务并返回按行号键控的结果集。
//
// 约束：
// - 并发由固定大小 worker 池限定；行之间相互独立，可乱序完成
// - 单行失败不影响其他行，也不中止批次
// - ctx 取消后在途任务尽快返回 cancelled 结果（best-effort 放弃）
func Fetch(ctx context.Context, client *http.Client, tasks []Task, opt Options, onDone ProgressFunc) map[int]Outcome {
	results := make(map[int]Outcome, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan Task)
	resCh := make(chan Outcome, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				started := time.Now()
				o := fetchOne(ctx, client, t, opt)
				o.Dur = time.Since(started)
				resCh <- o
			}
		}()
	}

	go func() {
		for _, t := range tasks {
			select {
			case jobs <- t:
			case <-ctx.Done():
				// 未下发的任务直接标记 cancelled，保证每行都有结果。
				resCh <- Outcome{Row: t.Row, ErrorCode: domain.ErrCodeCancelled, ErrorMsg: ctx.Err().Error()}
			}
		}
		close(jobs)
		wg.Wait()
		close(resCh)
	}()

	done := 0
	for o := range resCh {
		done++
		results[o.Row] = o
		if onDone != nil {
			onDone(done, len(tasks), o)
		}
	}
	return results
}

func fetchOne(ctx context.Context, client *http.Client, t Task, opt Options) Outcome {
	out := Outcome{Row: t.Row}

	body, ctype, err := get(ctx, client, t.URL)
	if err != nil {
		out.ErrorCode, out.ErrorMsg = classify(err)
		return out
	}

	// 粘贴的常常是分享页而不是图片直链：对 HTML 响应做一跳 og:image 回退。
	if isHTML(ctype, body) {
		imgURL, ok := pageImageURL(body, t.URL)
		if !ok {
			out.ErrorCode = domain.ErrCodeNotImage
			out.ErrorMsg = fmt.Sprintf("响应是 HTML 页面且无 og:image：%s", t.URL)
			return out
		}
		body, ctype, err = get(ctx, client, imgURL)
		if err != nil {
			out.ErrorCode, out.ErrorMsg = classify(err)
			return out
		}
		if !strings.HasPrefix(ctype, "image/") {
			out.ErrorCode = domain.ErrCodeNotImage
			out.ErrorMsg = fmt.Sprintf("og:image 指向的不是图片（%s）：%s", ctype, imgURL)
			return out
		}
	}

	// content-type 缺失或不规范的直链仍尝试解码；真正的判定交给解码器。
	data, err := imgx.FitJPEG(body, opt.MaxWidth, opt.MaxHeight)
	if err != nil {
		out.ErrorCode = domain.ErrCodeDecodeFailed
		out.ErrorMsg = fmt.Sprintf("图片解码失败：%v", err)
		return out
	}
	out.Data = data
	return out
}

func get(ctx context.Context, client *http.Client, rawURL string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(b) > maxBodyBytes {
		return nil, "", fmt.Errorf("响应超过 %d 字节上限", maxBodyBytes)
	}
	ct := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return b, ct, nil
}

func isHTML(ctype string, body []byte) bool {
	if strings.HasPrefix(ctype, "text/html") || strings.HasPrefix(ctype, "application/xhtml") {
		return true
	}
	if ctype != "" {
		return false
	}
	n := len(body)
	if n > 256 {
		n = 256
	}
	head := strings.ToLower(string(body[:n]))
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

// classify 把传输层错误映射为稳定错误码。
func classify(err error) (code, msg string) {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.ErrCodeCancelled, err.Error()
	case isTimeout(err):
		return domain.ErrCodeTimeout, fmt.Sprintf("下载超时：%v", err)
	default:
		var hs *HTTPStatusError
		if errors.As(err, &hs) {
			return domain.ErrCodeBadStatus, hs.Error()
		}
		return domain.ErrCodeFetchFailed, err.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
