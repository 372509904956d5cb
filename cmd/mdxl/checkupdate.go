package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LinNlc/mdxl/internal/infra/httpx"
	"github.com/LinNlc/mdxl/internal/update"
)

func newCheckUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-update",
		Short: "检查发布渠道是否有新版本",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := update.FetchLatest(cmd.Context(), httpx.NewVersionClient())
			if err != nil {
				return fmt.Errorf("版本检查失败：%w", err)
			}
			if !update.Newer(info.Version, appVersion) {
				fmt.Fprintf(cmd.OutOrStdout(), "已是最新版本（%s）\n", appVersion)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "发现新版本：%s（当前 %s）\n", info.Version, appVersion)
			if strings.TrimSpace(info.Notes) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "更新说明：%s\n", info.Notes)
			}
			if strings.TrimSpace(info.URL) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "下载地址：%s\n", info.URL)
			}
			return nil
		},
	}
}
