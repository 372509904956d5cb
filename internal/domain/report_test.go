package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		RunID:      "r-1",
		Input:      "/abs/in.xlsx",
		Mode:       ModeCombined,
		State:      StateDone,
		StartedAt:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 3, 2, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Rows: []RowResult{
			{Sheet: "Sheet1", Row: 4, Status: RowStatusMissing, ErrorCode: ErrCodeBadStatus},
			{Sheet: "Sheet1", Row: 2, Status: RowStatusEmbedded, ReviewerID: "5829"},
			{Sheet: "Sheet1", Row: 3, Status: RowStatusPlain, Flags: []string{FlagShortSummary}},
		},
	}

	r.Finalize()

	// 输出顺序必须与输入行号一致，与完成顺序无关。
	if r.Rows[0].Row != 2 || r.Rows[1].Row != 3 || r.Rows[2].Row != 4 {
		t.Fatalf("rows 排序不符合契约：%d %d %d", r.Rows[0].Row, r.Rows[1].Row, r.Rows[2].Row)
	}
	if r.Summary.Rows != 3 || r.Summary.Embedded != 1 || r.Summary.Missing != 1 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}
	if r.Summary.Flagged != 1 || r.Summary.Matched != 1 {
		t.Fatalf("flagged/matched 统计不正确：%+v", r.Summary)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-03-02T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestRunReport_Finalize_MultiSheetOrder(t *testing.T) {
	r := RunReport{
		Rows: []RowResult{
			{Sheet: "B", Row: 2},
			{Sheet: "A", Row: 3},
			{Sheet: "A", Row: 2},
		},
	}
	r.Finalize()
	if r.Rows[0].Sheet != "A" || r.Rows[0].Row != 2 || r.Rows[2].Sheet != "B" {
		t.Fatalf("多工作表排序不符合预期：%+v", r.Rows)
	}
}
