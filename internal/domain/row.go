package domain

// Row 是从输入工作表解析出的一行数据记录。
//
// 不变量：
// - Index 为工作表内 1-based 行号（表头为第 1 行，数据从第 2 行开始）
// - URL 只在该行 URL 列为有效 http(s) 地址时非空（已 TrimSpace）
type Row struct {
	Sheet string
	Index int
	Cells []string

	URL string
}

// 行级校验标记（写入 RowResult.Flags；行照常输出，只做标记）。
const (
	FlagShortSummary  = "short_summary"
	FlagCastDelimiter = "cast_delimiter"
)

// 行处理结果状态。
const (
	// RowStatusEmbedded 表示图片已下载、缩放并嵌入输出。
	RowStatusEmbedded = "embedded"
	// RowStatusMissing 表示该行有 URL 但下载/解码失败，输出时不带图片。
	RowStatusMissing = "missing"
	// RowStatusPlain 表示该行没有有效 URL，按原样输出。
	RowStatusPlain = "plain"
)

// 稳定错误码（对外输出，禁止随意改名）。
const (
	ErrCodeInputInvalid  = "input_invalid"
	ErrCodeConfigInvalid = "config_invalid"
	ErrCodeTimeout       = "timeout"
	ErrCodeBadStatus     = "bad_status"
	ErrCodeNotImage      = "not_image"
	ErrCodeDecodeFailed  = "decode_failed"
	ErrCodeFetchFailed   = "fetch_failed"
	ErrCodeIOFailed      = "io_failed"
	ErrCodeCancelled     = "cancelled"
)
