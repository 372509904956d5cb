package domain

import (
	"sort"
	"time"
)

// RunReport 是对外稳定输出（stdout JSON / --report 落盘）的结构。
type RunReport struct {
	RunID string `json:"run_id"`
	Input string `json:"input"`
	Mode  string `json:"mode"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	State State `json:"state"`

	// ErrorCode/ErrorMsg 仅在 State==failed 时非空（致命错误）。
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	Summary ReportSummary `json:"summary"`
	Rows    []RowResult   `json:"rows"`
	Outputs []string      `json:"outputs"`
}

type ReportSummary struct {
	Rows     int `json:"rows"`
	Embedded int `json:"embedded"`
	Missing  int `json:"missing"`
	Flagged  int `json:"flagged"`
	Matched  int `json:"matched"`
}

// RowResult 是单行的处理结果。行级失败不致命：行照常输出，失败只体现在
// Status/ErrorCode 与日志流里。
type RowResult struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	URL   string `json:"url"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Flags      []string `json:"flags"`
	ReviewerID string   `json:"reviewer_id"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) rows 稳定排序：先按 sheet 字典序，再按行号（输出顺序与输入一致，
//    与下载完成顺序无关）
// 3) summary 由 rows 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i], r.Rows[j]
		if a.Sheet != b.Sheet {
			return a.Sheet < b.Sheet
		}
		return a.Row < b.Row
	})

	var s ReportSummary
	s.Rows = len(r.Rows)
	for _, rr := range r.Rows {
		switch rr.Status {
		case RowStatusEmbedded:
			s.Embedded++
		case RowStatusMissing:
			s.Missing++
		}
		if len(rr.Flags) > 0 {
			s.Flagged++
		}
		if rr.ReviewerID != "" {
			s.Matched++
		}
	}
	r.Summary = s
}
