// Package xlsx 封装工作簿的读取与产物写出（excelize）。
//
// 读取把工作簿摊平为字符串矩阵，处理阶段只面向矩阵做判断；
// 写出阶段才回到 excelize 做样式、图片嵌入与落盘。
package xlsx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet 是单个工作表的快照。Rows 为 1-based 行的 0-based 切片，
// 即 Rows[0] 是表头行（第 1 行）。
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook 是输入工作簿的只读快照。
type Workbook struct {
	Path   string
	Sheets []Sheet
}

// DataRowCount 返回去掉表头后的数据行数。
func (s Sheet) DataRowCount() int {
	if len(s.Rows) <= 1 {
		return 0
	}
	return len(s.Rows) - 1
}

// Cell 返回 1-based (row, col) 的单元格内容；越界返回空串。
func (s Sheet) Cell(row, col int) string {
	if row < 1 || row > len(s.Rows) {
		return ""
	}
	r := s.Rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// Read 读取 path 处的 .xlsx 工作簿并摊平为快照。
// 扩展名不是 .xlsx、文件不存在或无法解析都返回错误。
func Read(path string) (*Workbook, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return nil, fmt.Errorf("只支持 .xlsx 输入，实际是 %q", ext)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败：%w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("工作簿 %q 没有工作表", path)
	}

	wb := &Workbook{Path: path, Sheets: make([]Sheet, 0, len(names))}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %q 失败：%w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}
