// Package run 是批处理的编排层：读表 → 校验/匹配 → 并发下载 → 写产物。
//
// 状态机固定为 idle → reading → fetching → writing → done；
// 输入不可读、产物写不出或运行被取消进入 failed，且不落任何产物。
// 行级失败（下载/校验）不致命，只体现在行结果与日志里。
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LinNlc/mdxl/internal/config"
	"github.com/LinNlc/mdxl/internal/domain"
	"github.com/LinNlc/mdxl/internal/fetch"
	"github.com/LinNlc/mdxl/internal/infra/httpx"
	"github.com/LinNlc/mdxl/internal/staff"
	"github.com/LinNlc/mdxl/internal/textutil"
	"github.com/LinNlc/mdxl/internal/xlsx"
)

// Execute 跑一次完整批处理并返回最终报告。报告始终可输出：
// 即使 failed，run_id/state/error_code 也已填好。
func Execute(ctx context.Context, eff config.EffectiveConfig, snap staff.Snapshot) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, snap, NopObserver{})
}

// ExecuteWithObserver 同 Execute，并把进度事件发给 obs。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, snap staff.Snapshot, obs Observer) domain.RunReport {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Input:     eff.Input,
		Mode:      eff.Mode,
		StartedAt: time.Now(),
		State:     domain.StateIdle,
	}
	obs.OnStart(eff.Input, eff.Mode, eff.Concurrency)

	fatal := func(code string, err error) domain.RunReport {
		report.State = domain.StateFailed
		report.ErrorCode = code
		report.ErrorMsg = err.Error()
		report.FinishedAt = time.Now()
		obs.OnLog("error", "", 0, err.Error())
		obs.OnState(domain.StateFailed)
		report.Finalize()
		return report
	}

	client, err := httpx.NewImageClient(eff.ProxyURL, eff.FetchTimeout)
	if err != nil {
		return fatal(domain.ErrCodeConfigInvalid, err)
	}

	// READING：读输入并按列布局做行级判定（校验标记、人员匹配、URL 提取）。
	report.State = domain.StateReading
	obs.OnState(domain.StateReading)

	wb, err := xlsx.Read(eff.Input)
	if err != nil {
		return fatal(domain.ErrCodeInputInvalid, fmt.Errorf("读取输入失败：%w", err))
	}

	// combined 处理全部工作表；paginated 只处理第一个工作表
	// （分页产物是单表工作簿，多表输入的后续表在该模式下没有对应产物）。
	sheets := wb.Sheets
	if eff.Mode == domain.ModePaginated {
		sheets = wb.Sheets[:1]
	}

	plans := make([]sheetPlan, 0, len(sheets))
	totalTasks := 0
	for _, s := range sheets {
		p := planSheet(s, eff, snap)
		totalTasks += len(p.tasks)
		plans = append(plans, p)
	}

	// 校验标记进日志流：与该行是否有 URL、下载成败无关，每个标记一条。
	for i := range plans {
		p := &plans[i]
		for _, rp := range p.rows {
			for _, f := range rp.flags {
				obs.OnLog("warn", p.sheet.Name, rp.row, flagMessage(f, eff.MinSummaryLen))
			}
		}
	}

	// FETCHING：固定大小 worker 池并发下载；完成顺序与行顺序无关。
	report.State = domain.StateFetching
	obs.OnState(domain.StateFetching)

	done := 0
	for i := range plans {
		p := &plans[i]
		obs.OnSheet(p.sheet.Name, p.sheet.DataRowCount(), len(p.tasks))
		p.outcomes = fetch.Fetch(ctx, client, p.tasks, fetch.Options{
			Workers:   eff.Concurrency,
			MaxWidth:  xlsx.TargetImageWidth,
			MaxHeight: xlsx.TargetImageHeight,
		}, func(_, _ int, o fetch.Outcome) {
			done++
			// 下载失败的日志事件就是这条 OnRowDone（带 error_code）；
			// 不再额外发 OnLog，保证每次失败恰好一条事件。
			obs.OnRowDone(done, totalTasks, p.rowResult(o), o.Dur)
		})
	}

	// 取消的运行不落产物：半成品比没有产物更糟。
	if err := ctx.Err(); err != nil {
		return fatal(domain.ErrCodeCancelled, fmt.Errorf("运行被取消：%w", err))
	}

	// WRITING：按模式写产物（临时文件 + rename，失败不留半成品）。
	report.State = domain.StateWriting
	obs.OnState(domain.StateWriting)

	layout := xlsx.Layout{
		URL:      eff.Columns.URL,
		Summary:  eff.Columns.Summary,
		Cast:     eff.Columns.Cast,
		Reviewer: eff.Columns.Reviewer,
	}

	switch eff.Mode {
	case domain.ModeCombined:
		edits := make([]xlsx.SheetEdit, 0, len(plans))
		for i := range plans {
			edits = append(edits, plans[i].edit())
		}
		out, err := xlsx.WriteCombined(eff.Input, layout, edits)
		if err != nil {
			return fatal(domain.ErrCodeIOFailed, fmt.Errorf("写出产物失败：%w", err))
		}
		report.Outputs = []string{out}
	case domain.ModePaginated:
		p := &plans[0]
		outs, err := xlsx.WritePaginated(eff.Input, p.sheet, layout, p.edit(), eff.PageSize)
		if err != nil {
			return fatal(domain.ErrCodeIOFailed, fmt.Errorf("写出产物失败：%w", err))
		}
		report.Outputs = outs
	default:
		return fatal(domain.ErrCodeConfigInvalid, fmt.Errorf("未知处理模式 %q", eff.Mode))
	}

	for i := range plans {
		report.Rows = append(report.Rows, plans[i].results()...)
	}

	report.State = domain.StateDone
	report.FinishedAt = time.Now()
	obs.OnState(domain.StateDone)
	report.Finalize()
	return report
}

// flagMessage 把校验标记折算成日志文案。
func flagMessage(flag string, minSummaryLen int) string {
	switch flag {
	case domain.FlagShortSummary:
		return fmt.Sprintf("内容简介不足 %d 字", minSummaryLen)
	case domain.FlagCastDelimiter:
		return "主创名单使用了非法分隔符 '-'"
	default:
		return flag
	}
}

// rowPlan 是单行在读取阶段的判定结果。
type rowPlan struct {
	row        int // 1-based 源行号
	url        string
	flags      []string
	reviewerID string
}

// sheetPlan 聚合一个工作表的行判定与下载结果。
type sheetPlan struct {
	sheet    xlsx.Sheet
	rows     []rowPlan
	tasks    []fetch.Task
	outcomes map[int]fetch.Outcome
}

// planSheet 对一个工作表的全部数据行做行级判定。
func planSheet(s xlsx.Sheet, eff config.EffectiveConfig, snap staff.Snapshot) sheetPlan {
	p := sheetPlan{sheet: s}
	for row := 2; row <= len(s.Rows); row++ {
		rp := rowPlan{row: row}

		if textutil.ContentLength(s.Cell(row, eff.Columns.Summary)) < eff.MinSummaryLen {
			rp.flags = append(rp.flags, domain.FlagShortSummary)
		}
		if textutil.HasInvalidCastDelimiter(s.Cell(row, eff.Columns.Cast)) {
			rp.flags = append(rp.flags, domain.FlagCastDelimiter)
		}
		if id, ok := snap.Match(s.Cell(row, eff.Columns.StaffName)); ok {
			rp.reviewerID = id
		}
		if raw := s.Cell(row, eff.Columns.URL); textutil.IsValidURL(raw) {
			rp.url = raw
			p.tasks = append(p.tasks, fetch.Task{Row: row, URL: raw})
		}

		p.rows = append(p.rows, rp)
	}
	return p
}

// edit 把判定与下载结果折算成写出层的修改集。
func (p *sheetPlan) edit() xlsx.SheetEdit {
	e := xlsx.SheetEdit{
		Name:        p.sheet.Name,
		ReviewerIDs: map[int]string{},
		Images:      map[int][]byte{},
	}
	for _, rp := range p.rows {
		for _, f := range rp.flags {
			switch f {
			case domain.FlagShortSummary:
				e.SummaryFlagRows = append(e.SummaryFlagRows, rp.row)
			case domain.FlagCastDelimiter:
				e.CastFlagRows = append(e.CastFlagRows, rp.row)
			}
		}
		if rp.reviewerID != "" {
			e.ReviewerIDs[rp.row] = rp.reviewerID
		}
		if o, ok := p.outcomes[rp.row]; ok && o.OK() {
			e.Images[rp.row] = o.Data
		}
	}
	return e
}

// rowResult 用一条下载结果构造进度回调里的单行结果。
func (p *sheetPlan) rowResult(o fetch.Outcome) domain.RowResult {
	res := domain.RowResult{Sheet: p.sheet.Name, Row: o.Row, Status: domain.RowStatusMissing}
	for _, rp := range p.rows {
		if rp.row != o.Row {
			continue
		}
		res.URL = rp.url
		res.Flags = rp.flags
		res.ReviewerID = rp.reviewerID
		break
	}
	if o.OK() {
		res.Status = domain.RowStatusEmbedded
	} else {
		res.ErrorCode = o.ErrorCode
		res.ErrorMsg = o.ErrorMsg
	}
	return res
}

// results 产出该工作表全部数据行的最终结果。
func (p *sheetPlan) results() []domain.RowResult {
	out := make([]domain.RowResult, 0, len(p.rows))
	for _, rp := range p.rows {
		res := domain.RowResult{
			Sheet:      p.sheet.Name,
			Row:        rp.row,
			URL:        rp.url,
			Status:     domain.RowStatusPlain,
			Flags:      rp.flags,
			ReviewerID: rp.reviewerID,
		}
		if rp.url != "" {
			if o, ok := p.outcomes[rp.row]; ok && o.OK() {
				res.Status = domain.RowStatusEmbedded
			} else {
				res.Status = domain.RowStatusMissing
				if ok {
					res.ErrorCode = o.ErrorCode
					res.ErrorMsg = o.ErrorMsg
				}
			}
		}
		out = append(out, res)
	}
	return out
}
