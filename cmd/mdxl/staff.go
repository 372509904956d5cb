package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/LinNlc/mdxl/internal/config"
	"github.com/LinNlc/mdxl/internal/staff"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "维护审核人员库（姓名 → 工号后四位）",
	}
	cmd.AddCommand(newStaffListCmd(), newStaffAddCmd(), newStaffRemoveCmd())
	return cmd
}

// openDirectory 按生效配置打开人员库。
func openDirectory() (*staff.Directory, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("读取当前目录失败：%w", err)
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{})
	if err != nil {
		return nil, err
	}
	return staff.Open(eff.StaffDB)
}

func newStaffListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出全部人员",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDirectory()
			if err != nil {
				return err
			}
			defer d.Close()

			entries, err := d.List()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"姓名", "工号后四位"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.Name, e.IDLast4})
			}
			t.Render()
			return nil
		},
	}
}

func newStaffAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <姓名> <工号后四位>",
		Short: "新增或覆盖一条人员记录",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDirectory()
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Upsert(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已保存：%s → %s\n", args[0], args[1])
			return nil
		},
	}
}

func newStaffRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <姓名>",
		Short: "删除一条人员记录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDirectory()
			if err != nil {
				return err
			}
			defer d.Close()

			ok, err := d.Delete(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("人员库里没有 %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已删除：%s\n", args[0])
			return nil
		},
	}
}
