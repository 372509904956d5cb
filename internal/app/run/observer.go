package run

import (
	"time"

	"github.com/LinNlc/mdxl/internal/domain"
)

// Observer 接收一次批处理运行的进度事件。
// 所有回调都在编排 goroutine 上串行发生，实现方无需加锁。
//
// 实现方不得阻塞：进度 UI 慢不应拖慢批处理本身。
type Observer interface {
	// OnStart 在读取输入之前触发一次。
	OnStart(input, mode string, concurrency int)

	// OnState 在状态机每次迁移时触发。
	OnState(s domain.State)

	// OnSheet 在开始处理一个工作表时触发。
	OnSheet(name string, dataRows, tasks int)

	// OnRowDone 在每个下载任务完成（成功或失败）时触发。
	// done/total 只统计有 URL 的行。
	OnRowDone(done, total int, res domain.RowResult, dur time.Duration)

	// OnLog 承载校验标记（每个标记一条 warn）与致命日志（error）。
	// row 为 0 表示与具体行无关；下载失败不走这里，由 OnRowDone 携带。
	OnLog(level, sheet string, row int, msg string)
}

// NopObserver 丢弃全部事件（测试与纯 JSON 输出场景）。
type NopObserver struct{}

func (NopObserver) OnStart(string, string, int)                         {}
func (NopObserver) OnState(domain.State)                                {}
func (NopObserver) OnSheet(string, int, int)                            {}
func (NopObserver) OnRowDone(int, int, domain.RowResult, time.Duration) {}
func (NopObserver) OnLog(string, string, int, string)                   {}

var _ Observer = NopObserver{}
