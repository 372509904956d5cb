package domain

// State 表示一次批处理运行的阶段。
//
// 迁移规则（固定）：
//
//	idle → reading → fetching → writing → done
//
// reading/writing 阶段的不可恢复错误（输入不可读、落盘失败）直接进入 failed；
// 行级失败（下载/校验）不影响状态机。
type State string

const (
	StateIdle     State = "idle"
	StateReading  State = "reading"
	StateFetching State = "fetching"
	StateWriting  State = "writing"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// 处理模式：combined 输出单个产物；paginated 每 50 行拆分一个产物。
const (
	ModeCombined  = "combined"
	ModePaginated = "paginated"
)
