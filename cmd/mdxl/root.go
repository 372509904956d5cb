package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// appVersion 随发布更新；check-update 用它与发布渠道比较。
const appVersion = "1.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdxl",
		Short: "短剧剧目表批处理：下载封面嵌入表格、校验内容、匹配审核人",
		Long: `mdxl 读取剧目表（.xlsx），并发下载 URL 列的封面图并缩放嵌入表格，
校验内容简介与主创名单，按人员库自动回填审核人工号，最后按模式写出产物
（combined 单产物 / paginated 每页一个产物）。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newConvertCmd(),
		newStaffCmd(),
		newModeCmd(),
		newCheckUpdateCmd(),
		newVersionCmd(),
	)
	return root
}

// execute 运行 CLI 并返回进程退出码。
// 约定：参数错误 → 2；运行失败 → 1；成功（含行级失败）→ 0。
func execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if ec, ok := err.(*exitError); ok {
			return ec.code
		}
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		return 2
	}
	return 0
}

// exitError 携带确定的退出码穿过 cobra 的错误通道。
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本号",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appVersion)
		},
	}
}
