package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LinNlc/mdxl/internal/config"
)

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [combined|paginated]",
		Short: "查看或持久化处理模式",
		Long: `不带参数时显示当前生效的处理模式；
带参数时把模式写入 mdxl.toml，之后的 convert 默认使用该模式。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}

			if len(args) == 0 {
				eff, err := config.LoadEffective(cwd, config.CLIArgs{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), eff.Mode)
				return nil
			}

			if err := config.SaveMode(cwd, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "处理模式已设为 %s\n", args[0])
			return nil
		},
	}
}
