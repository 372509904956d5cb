package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LinNlc/mdxl/internal/domain"
)

func TestLoadEffective_DefaultsWithoutFile(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Input: "in.xlsx"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if eff.Mode != domain.ModePaginated {
		t.Fatalf("默认 mode 应为 paginated，实际 %q", eff.Mode)
	}
	if eff.Concurrency != DefaultConcurrency {
		t.Fatalf("默认并发不符：%d", eff.Concurrency)
	}
	if eff.FetchTimeout != 15*time.Second {
		t.Fatalf("默认超时不符：%v", eff.FetchTimeout)
	}
	if eff.MinSummaryLen != 100 || eff.PageSize != 50 {
		t.Fatalf("默认阈值不符：minLen=%d pageSize=%d", eff.MinSummaryLen, eff.PageSize)
	}
	if eff.Columns.URL != 8 || eff.Columns.Summary != 9 || eff.Columns.Cast != 7 ||
		eff.Columns.StaffName != 20 || eff.Columns.Reviewer != 22 {
		t.Fatalf("默认列布局不符：%+v", eff.Columns)
	}
	if !filepath.IsAbs(eff.Input) {
		t.Fatalf("input 应为绝对路径：%q", eff.Input)
	}
	if eff.StaffDB != filepath.Join(cwd, "data", "staff.db") {
		t.Fatalf("默认人员库路径不符：%q", eff.StaffDB)
	}
}

func TestLoadEffective_FileAndCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	cfg := `
mode = "combined"
concurrency = 4
fetch_timeout_sec = 30
min_summary_len = 50
page_size = 10
staff_db = "db/staff.db"

[columns]
url = 2
reviewer = 5
`
	if err := os.WriteFile(filepath.Join(cwd, FileName), []byte(cfg), 0o644); err != nil {
		t.Fatalf("写配置失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != domain.ModeCombined || eff.Concurrency != 4 {
		t.Fatalf("文件配置未生效：mode=%q concurrency=%d", eff.Mode, eff.Concurrency)
	}
	if eff.FetchTimeout != 30*time.Second || eff.MinSummaryLen != 50 || eff.PageSize != 10 {
		t.Fatalf("阈值未生效：%+v", eff)
	}
	if eff.Columns.URL != 2 || eff.Columns.Reviewer != 5 {
		t.Fatalf("列覆盖未生效：%+v", eff.Columns)
	}
	// 未覆盖的列保持默认。
	if eff.Columns.Summary != 9 {
		t.Fatalf("未覆盖列不应变化：%+v", eff.Columns)
	}
	if eff.StaffDB != filepath.Join(cwd, "db", "staff.db") {
		t.Fatalf("staff_db 相对路径应相对 cwd 展开：%q", eff.StaffDB)
	}

	// CLI 覆盖文件。
	eff, err = LoadEffective(cwd, CLIArgs{Mode: domain.ModePaginated, ModeSet: true, Concurrency: 64, ConcurrencySet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != domain.ModePaginated {
		t.Fatalf("CLI mode 应覆盖文件：%q", eff.Mode)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("并发应截断到 32：%d", eff.Concurrency)
	}
}

func TestLoadEffective_InvalidValues(t *testing.T) {
	cases := []string{
		"mode = \"both\"\n",
		"fetch_timeout_sec = 0\n",
		"fetch_timeout_sec = 999\n",
		"min_summary_len = 0\n",
		"page_size = -1\n",
		"proxy_url = \"not a url\"\n",
		"[columns]\nurl = 22\nreviewer = 22\n",
		"[columns]\nsummary = -3\n",
	}
	for _, cfg := range cases {
		cwd := t.TempDir()
		if err := os.WriteFile(filepath.Join(cwd, FileName), []byte(cfg), 0o644); err != nil {
			t.Fatalf("写配置失败：%v", err)
		}
		_, err := LoadEffective(cwd, CLIArgs{})
		if err == nil {
			t.Fatalf("期望配置 %q 报错", cfg)
		}
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("error_code 不符：%q（配置 %q）", Code(err), cfg)
		}
	}
}

func TestSaveMode_RoundTripPreservesOtherFields(t *testing.T) {
	cwd := t.TempDir()
	if err := os.WriteFile(filepath.Join(cwd, FileName), []byte("concurrency = 4\n"), 0o644); err != nil {
		t.Fatalf("写配置失败：%v", err)
	}

	if err := SaveMode(cwd, domain.ModeCombined); err != nil {
		t.Fatalf("SaveMode 失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != domain.ModeCombined {
		t.Fatalf("模式未持久化：%q", eff.Mode)
	}
	if eff.Concurrency != 4 {
		t.Fatalf("其他字段被 SaveMode 丢弃：concurrency=%d", eff.Concurrency)
	}
}

func TestSaveMode_Invalid(t *testing.T) {
	if err := SaveMode(t.TempDir(), "x"); err == nil {
		t.Fatalf("非法模式应报错")
	}
}
