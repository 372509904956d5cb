package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LinNlc/mdxl/internal/app/run"
	"github.com/LinNlc/mdxl/internal/config"
	"github.com/LinNlc/mdxl/internal/domain"
	"github.com/LinNlc/mdxl/internal/infra/fsx"
	"github.com/LinNlc/mdxl/internal/staff"
)

func newConvertCmd() *cobra.Command {
	var (
		mode        string
		concurrency int
		reportPath  string
	)

	cmd := &cobra.Command{
		Use:   "convert <输入.xlsx>",
		Short: "处理一份剧目表并写出产物",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}

			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				Input:          args[0],
				Mode:           mode,
				ModeSet:        cmd.Flags().Changed("mode"),
				Concurrency:    concurrency,
				ConcurrencySet: cmd.Flags().Changed("concurrency"),
			})
			if err != nil {
				emitReport(reportForConfigError(args[0], err))
				return &exitError{code: 1, msg: err.Error()}
			}

			dir, err := staff.Open(eff.StaffDB)
			if err != nil {
				return fmt.Errorf("打开人员库失败：%w", err)
			}
			defer dir.Close()
			snap, err := dir.Snapshot()
			if err != nil {
				return fmt.Errorf("读取人员库失败：%w", err)
			}

			// Ctrl-C：取消在途运行；取消的运行不落产物。
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			progressW, interactive := pickProgressWriter()
			var obs run.Observer = run.NopObserver{}
			if interactive {
				obs = newProgressUI(progressW)
			}

			rr := run.ExecuteWithObserver(ctx, eff, snap, obs)

			if reportPath != "" {
				if err := writeReportFile(reportPath, rr); err != nil {
					fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", err)
					emitReport(rr)
					return &exitError{code: 1, msg: err.Error()}
				}
			}

			emitReport(rr)
			if rr.State == domain.StateFailed {
				return &exitError{code: 1, msg: rr.ErrorMsg}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "处理模式：combined|paginated（默认读配置文件）")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "下载并发数（1-32，默认读配置文件）")
	cmd.Flags().StringVar(&reportPath, "report", "", "把运行报告 JSON 另存到该路径")
	return cmd
}

// emitReport 维持 stdout 契约：交互终端打印人类摘要；
// stdout 非 TTY 时 stdout 必须且仅输出一个 RunReport JSON，摘要走 stderr。
func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		if rr.State == domain.StateFailed {
			fmt.Fprintf(os.Stdout, "失败（%s）：%s\n", rr.ErrorCode, rr.ErrorMsg)
			return
		}
		fmt.Fprintf(os.Stdout, "完成：rows=%d embedded=%d missing=%d flagged=%d matched=%d\n",
			rr.Summary.Rows, rr.Summary.Embedded, rr.Summary.Missing,
			rr.Summary.Flagged, rr.Summary.Matched,
		)
		for _, out := range rr.Outputs {
			fmt.Fprintf(os.Stdout, "产物：%s\n", out)
		}
		if rr.Summary.Missing > 0 {
			for _, r := range rr.Rows {
				if r.Status != domain.RowStatusMissing {
					continue
				}
				fmt.Fprintf(os.Stderr, "%s 第%d行 %s: %s\n", r.Sheet, r.Row, r.ErrorCode, r.ErrorMsg)
			}
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：rows=%d embedded=%d missing=%d flagged=%d matched=%d\n",
		rr.Summary.Rows, rr.Summary.Embedded, rr.Summary.Missing,
		rr.Summary.Flagged, rr.Summary.Matched,
	)
}

func reportForConfigError(input string, err error) domain.RunReport {
	rr := domain.RunReport{
		Input:     input,
		State:     domain.StateFailed,
		ErrorCode: config.Code(err),
		ErrorMsg:  err.Error(),
	}
	if rr.ErrorCode == "" {
		rr.ErrorCode = domain.ErrCodeConfigInvalid
	}
	rr.Finalize()
	return rr
}

func writeReportFile(path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return fsx.WriteFileAtomicReplace(dir, name, b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
