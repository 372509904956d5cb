package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/LinNlc/mdxl/internal/app/run"
	"github.com/LinNlc/mdxl/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间无行完成时也会定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(input, mode string, concurrency int) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] mdxl convert\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  input: %s\n", input)
	fmt.Fprintf(p.w, "  mode: %s\n", mode)
	fmt.Fprintf(p.w, "  concurrency: %d\n", concurrency)
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	p.mu.Unlock()
}

func (p *progressUI) OnState(s domain.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch s {
	case domain.StateReading:
		fmt.Fprintln(p.w, "读取输入...")
	case domain.StateWriting:
		fmt.Fprintln(p.w, "写出产物...")
	case domain.StateDone, domain.StateFailed:
		if p.tickerStarted {
			close(p.stopCh)
			p.tickerStarted = false
		}
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSheet(name string, dataRows, tasks int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total += tasks
	fmt.Fprintf(p.w, "工作表 %s: rows=%d downloads=%d\n", name, dataRows, tasks)
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnRowDone(done, total int, res domain.RowResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	if total > p.total {
		p.total = total
	}

	switch res.Status {
	case domain.RowStatusEmbedded:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] %s 第%d行 OK (%s)\n",
			done, total, res.Sheet, res.Row, formatShortDuration(dur))
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s 第%d行 FAIL %s: %s (%s)\n",
			done, total, res.Sheet, res.Row, res.ErrorCode,
			truncate(res.ErrorMsg, 160), formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) OnLog(level, sheet string, row int, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// 下载失败由 OnRowDone 展示；走到这里的行级日志是校验标记。
	if sheet != "" && row > 0 {
		fmt.Fprintf(p.w, "%s %s 第%d行: %s\n", strings.ToUpper(level), sheet, row, truncate(msg, 200))
	} else {
		fmt.Fprintf(p.w, "%s: %s\n", strings.ToUpper(level), truncate(msg, 200))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
