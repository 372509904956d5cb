package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/LinNlc/mdxl/internal/domain"
	"github.com/LinNlc/mdxl/internal/infra/fsx"
)

// FileName 是工作目录下的配置文件名。文件不存在时一切走默认值。
const FileName = "mdxl.toml"

// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
const ErrCodeInvalid = "config_invalid"

const (
	DefaultMode          = domain.ModePaginated
	DefaultConcurrency   = 8
	DefaultFetchTimeout  = 15 * time.Second
	DefaultMinSummaryLen = 100
	DefaultPageSize      = 50
)

// 默认列布局（1-based 列号；与线上表格模板一致）：
// H=图片 URL，I=内容简介，G=主创名单，T=审核人姓名，V=审核人工号后四位。
const (
	DefaultURLColumn       = 8
	DefaultSummaryColumn   = 9
	DefaultCastColumn      = 7
	DefaultStaffNameColumn = 20
	DefaultReviewerColumn  = 22
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息，
// 保证覆盖优先级可实现（CLI > 配置文件 > 默认值）。
type CLIArgs struct {
	Input string

	Mode    string
	ModeSet bool

	Concurrency    int
	ConcurrencySet bool
}

// FileConfig 对应 mdxl.toml 的解析结构。所有字段可选。
type FileConfig struct {
	Mode            string         `toml:"mode,omitempty"`
	Concurrency     int            `toml:"concurrency,omitempty"`
	FetchTimeoutSec int            `toml:"fetch_timeout_sec,omitempty"`
	MinSummaryLen   *int           `toml:"min_summary_len,omitempty"`
	PageSize        int            `toml:"page_size,omitempty"`
	ProxyURL        string         `toml:"proxy_url,omitempty"`
	StaffDB         string         `toml:"staff_db,omitempty"`
	Columns         *ColumnsConfig `toml:"columns,omitempty"`
}

type ColumnsConfig struct {
	URL       int `toml:"url,omitempty"`
	Summary   int `toml:"summary,omitempty"`
	Cast      int `toml:"cast,omitempty"`
	StaffName int `toml:"staff_name,omitempty"`
	Reviewer  int `toml:"reviewer,omitempty"`
}

// Columns 是合并后的列布局（全部 1-based，且均 ≥1）。
type Columns struct {
	URL       int
	Summary   int
	Cast      int
	StaffName int
	Reviewer  int
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Input string // 输入 xlsx 的绝对路径；staff/mode 等命令下可为空

	Mode          string
	Concurrency   int
	FetchTimeout  time.Duration
	MinSummaryLen int
	PageSize      int
	ProxyURL      string
	StaffDB       string // 绝对路径
	Columns       Columns
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/mdxl.toml（可选）并与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：
// - mode：CLI --mode > 配置文件 > 默认 paginated
// - concurrency：CLI --concurrency > 配置文件 > 默认 8（范围 [1,32]，超出截断）
// - 其他字段：仅由配置文件控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return merge(cwdAbs, cfgPath, cli, fc)
}

func merge(cwdAbs, cfgPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	// mode：CLI > config > 默认
	mode := DefaultMode
	if cli.ModeSet {
		mode = strings.TrimSpace(cli.Mode)
	} else if strings.TrimSpace(fc.Mode) != "" {
		mode = strings.TrimSpace(fc.Mode)
	}
	if err := ValidateMode(mode); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// concurrency：CLI > config > 默认；范围 [1,32] 截断。
	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	timeout := DefaultFetchTimeout
	if fc.FetchTimeoutSec != 0 {
		if fc.FetchTimeoutSec < 1 || fc.FetchTimeoutSec > 120 {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
				Err: fmt.Errorf("fetch_timeout_sec 必须在 [1,120]，实际是 %d", fc.FetchTimeoutSec)}
		}
		timeout = time.Duration(fc.FetchTimeoutSec) * time.Second
	}

	minLen := DefaultMinSummaryLen
	if fc.MinSummaryLen != nil {
		if *fc.MinSummaryLen < 1 {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
				Err: fmt.Errorf("min_summary_len 必须大于 0，实际是 %d", *fc.MinSummaryLen)}
		}
		minLen = *fc.MinSummaryLen
	}

	pageSize := fc.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("page_size 必须大于 0，实际是 %d", fc.PageSize)}
	}

	proxyURL := strings.TrimSpace(fc.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
				Err: fmt.Errorf("proxy_url 无效：%q", proxyURL)}
		}
	}

	staffDB := strings.TrimSpace(fc.StaffDB)
	if staffDB == "" {
		staffDB = filepath.Join(cwdAbs, "data", "staff.db")
	} else {
		staffDB = absCleanFrom(cwdAbs, staffDB)
	}

	cols, err := mergeColumns(fc.Columns)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	input := strings.TrimSpace(cli.Input)
	if input != "" {
		input = absCleanFrom(cwdAbs, input)
	}

	return EffectiveConfig{
		Input:         input,
		Mode:          mode,
		Concurrency:   concurrency,
		FetchTimeout:  timeout,
		MinSummaryLen: minLen,
		PageSize:      pageSize,
		ProxyURL:      proxyURL,
		StaffDB:       staffDB,
		Columns:       cols,
	}, nil
}

func mergeColumns(cc *ColumnsConfig) (Columns, error) {
	cols := Columns{
		URL:       DefaultURLColumn,
		Summary:   DefaultSummaryColumn,
		Cast:      DefaultCastColumn,
		StaffName: DefaultStaffNameColumn,
		Reviewer:  DefaultReviewerColumn,
	}
	if cc != nil {
		if cc.URL != 0 {
			cols.URL = cc.URL
		}
		if cc.Summary != 0 {
			cols.Summary = cc.Summary
		}
		if cc.Cast != 0 {
			cols.Cast = cc.Cast
		}
		if cc.StaffName != 0 {
			cols.StaffName = cc.StaffName
		}
		if cc.Reviewer != 0 {
			cols.Reviewer = cc.Reviewer
		}
	}
	for name, v := range map[string]int{
		"columns.url":        cols.URL,
		"columns.summary":    cols.Summary,
		"columns.cast":       cols.Cast,
		"columns.staff_name": cols.StaffName,
		"columns.reviewer":   cols.Reviewer,
	} {
		if v < 1 {
			return Columns{}, fmt.Errorf("%s 必须是 ≥1 的列号，实际是 %d", name, v)
		}
	}
	if cols.URL == cols.Reviewer {
		return Columns{}, fmt.Errorf("columns.url 与 columns.reviewer 不能是同一列（%d）", cols.URL)
	}
	return cols, nil
}

// ValidateMode 校验处理模式取值。
func ValidateMode(mode string) error {
	switch mode {
	case domain.ModeCombined, domain.ModePaginated:
		return nil
	case "":
		return fmt.Errorf("mode 不能为空")
	default:
		return fmt.Errorf("mode 只能是 %s 或 %s，实际是 %q", domain.ModeCombined, domain.ModePaginated, mode)
	}
}

// SaveMode 把处理模式写回 <cwd>/mdxl.toml（保留文件里的其他字段）。
func SaveMode(cwd, mode string) error {
	if err := ValidateMode(mode); err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	fc.Mode = mode

	b, err := toml.Marshal(fc)
	if err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if err := fsx.WriteFileAtomicReplace(cwdAbs, FileName, b); err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
