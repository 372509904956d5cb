package xlsx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/LinNlc/mdxl/internal/infra/fsx"
)

// 嵌入图片的目标尺寸（px）与承载它的单元格盒子。
// 42 字符列宽 × 140pt 行高恰好装下 336×186 的图。
const (
	TargetImageWidth  = 336
	TargetImageHeight = 186

	imageColWidth  = 42.0
	imageRowHeight = 140.0
)

// 校验不通过的单元格底色（ARGB 红）。
const flagFillColor = "FFFF0000"

// Layout 是写出阶段用到的列布局（1-based 列号）。
type Layout struct {
	URL      int
	Summary  int
	Cast     int
	Reviewer int
}

// SheetEdit 描述对单个工作表的全部修改。所有行号都是源表的 1-based 行号。
type SheetEdit struct {
	Name string

	// SummaryFlagRows / CastFlagRows 是需要红底标记的行。
	SummaryFlagRows []int
	CastFlagRows    []int

	// ReviewerIDs 是行 → 待写入审核人列的工号后四位。
	ReviewerIDs map[int]string

	// Images 是行 → 已缩放 JPEG。有图的行清空 URL 文本后嵌入图片；
	// 没图的行保留原 URL 文本。
	Images map[int][]byte
}

// ConvertedPath 返回合并模式（或仅一页的分页模式）的产物路径。
func ConvertedPath(in string) string {
	return withSuffix(in, "_converted")
}

// PartPath 返回分页模式第 n 页（1-based）的产物路径。
func PartPath(in string, n int) string {
	return withSuffix(in, fmt.Sprintf("_part%d", n))
}

func withSuffix(in, suffix string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + suffix + ext
}

// WriteCombined 在输入工作簿的副本上应用全部修改，
// 原子写出单一产物并返回其路径。输入文件本身不动。
func WriteCombined(inPath string, layout Layout, edits []SheetEdit) (string, error) {
	f, err := excelize.OpenFile(inPath)
	if err != nil {
		return "", fmt.Errorf("打开工作簿失败：%w", err)
	}
	defer f.Close()

	for _, e := range edits {
		if err := applyEdit(f, layout, e); err != nil {
			return "", fmt.Errorf("处理工作表 %q 失败：%w", e.Name, err)
		}
	}

	out := ConvertedPath(inPath)
	if err := saveAtomic(f, out); err != nil {
		return "", err
	}
	return out, nil
}

// WritePaginated 把单个工作表按 pageSize 行切页，每页写出一个独立工作簿，
// 返回全部产物路径（页顺序）。不超过一页时产物命名与合并模式一致。
//
// 每页都带表头行；edit 中的源行号被重映射到页内行号。
func WritePaginated(inPath string, sheet Sheet, layout Layout, edit SheetEdit, pageSize int) ([]string, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page_size 必须大于 0，实际是 %d", pageSize)
	}

	dataRows := sheet.DataRowCount()
	pages := (dataRows + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1 // 只有表头也写出一页，产物行为与合并模式对齐
	}

	outs := make([]string, 0, pages)
	for p := 0; p < pages; p++ {
		startRow := 2 + p*pageSize       // 本页第一条数据的源行号
		endRow := startRow + pageSize - 1 // 含
		if endRow > len(sheet.Rows) {
			endRow = len(sheet.Rows)
		}

		out := ConvertedPath(inPath)
		if pages > 1 {
			out = PartPath(inPath, p+1)
		}
		if err := writePage(out, sheet, layout, edit, startRow, endRow); err != nil {
			return nil, fmt.Errorf("写出第 %d 页失败：%w", p+1, err)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func writePage(out string, sheet Sheet, layout Layout, edit SheetEdit, startRow, endRow int) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Name
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}

	// 表头 + 本页数据行。空工作表（连表头都没有）照常写出空产物。
	if len(sheet.Rows) > 0 {
		if err := setRow(f, name, 1, sheet.Rows[0]); err != nil {
			return err
		}
	}
	local := 2
	pageEdit := SheetEdit{
		Name:        name,
		ReviewerIDs: map[int]string{},
		Images:      map[int][]byte{},
	}
	for src := startRow; src <= endRow; src++ {
		if err := setRow(f, name, local, sheet.Rows[src-1]); err != nil {
			return err
		}
		if id, ok := edit.ReviewerIDs[src]; ok {
			pageEdit.ReviewerIDs[local] = id
		}
		if img, ok := edit.Images[src]; ok {
			pageEdit.Images[local] = img
		}
		if containsInt(edit.SummaryFlagRows, src) {
			pageEdit.SummaryFlagRows = append(pageEdit.SummaryFlagRows, local)
		}
		if containsInt(edit.CastFlagRows, src) {
			pageEdit.CastFlagRows = append(pageEdit.CastFlagRows, local)
		}
		local++
	}

	if err := applyEdit(f, layout, pageEdit); err != nil {
		return err
	}
	return saveAtomic(f, out)
}

// applyEdit 把一个工作表的全部修改落到 excelize 文件上：
// 红底标记、审核人工号、图片嵌入与承载单元格的尺寸样式。
func applyEdit(f *excelize.File, layout Layout, e SheetEdit) error {
	flagStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{flagFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center", Vertical: "center", WrapText: true,
		},
	})
	if err != nil {
		return err
	}
	imageStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for _, row := range e.SummaryFlagRows {
		if err := styleCell(f, e.Name, layout.Summary, row, flagStyle); err != nil {
			return err
		}
	}
	for _, row := range e.CastFlagRows {
		if err := styleCell(f, e.Name, layout.Cast, row, flagStyle); err != nil {
			return err
		}
	}

	for row, id := range e.ReviewerIDs {
		cell, err := excelize.CoordinatesToCellName(layout.Reviewer, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(e.Name, cell, id); err != nil {
			return err
		}
	}

	if len(e.Images) == 0 {
		return nil
	}

	colName, err := excelize.ColumnNumberToName(layout.URL)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(e.Name, colName, colName, imageColWidth); err != nil {
		return err
	}
	for row, img := range e.Images {
		cell, err := excelize.CoordinatesToCellName(layout.URL, row)
		if err != nil {
			return err
		}
		// 清掉 URL 文本，单元格只承载图片。
		if err := f.SetCellStr(e.Name, cell, ""); err != nil {
			return err
		}
		if err := styleCell(f, e.Name, layout.URL, row, imageStyle); err != nil {
			return err
		}
		if err := f.SetRowHeight(e.Name, row, imageRowHeight); err != nil {
			return err
		}
		if err := f.AddPictureFromBytes(e.Name, cell, &excelize.Picture{
			Extension: ".jpg",
			File:      img,
			Format:    &excelize.GraphicOptions{AutoFit: true},
		}); err != nil {
			return err
		}
	}
	return nil
}

func styleCell(f *excelize.File, sheet string, col, row, styleID int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, styleID)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// saveAtomic 经 fsx 的临时文件 + rename 写出，失败不留半成品。
func saveAtomic(f *excelize.File, out string) error {
	dir, name := filepath.Split(out)
	if dir == "" {
		dir = "."
	}
	return fsx.SaveAtomicReplace(dir, name, func(tmp string) error {
		return f.SaveAs(tmp)
	})
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
