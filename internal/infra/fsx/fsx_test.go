package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplace(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomicReplace(dir, "a.json", []byte("v1")); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	if err := WriteFileAtomicReplace(dir, "a.json", []byte("v2")); err != nil {
		t.Fatalf("覆盖写入失败：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("读取失败：%v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("内容不符合预期：%q", string(b))
	}

	// 目录内不应残留临时文件。
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望目录只有 1 个文件，实际 %d", len(entries))
	}
}

func TestSaveAtomicReplace_WriteFailureLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.xlsx")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("准备旧文件失败：%v", err)
	}

	wantErr := errors.New("save 失败")
	err := SaveAtomicReplace(dir, "out.xlsx", func(tmpPath string) error {
		// 模拟写了一半就失败。
		_ = os.WriteFile(tmpPath, []byte("half"), 0o644)
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("期望透传回调错误，实际：%v", err)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("读取目标失败：%v", err)
	}
	if string(b) != "old" {
		t.Fatalf("失败写入不应触碰目标文件：%q", string(b))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("临时文件未清理：%d 个文件", len(entries))
	}
}

func TestSaveAtomicReplace_Success(t *testing.T) {
	dir := t.TempDir()
	err := SaveAtomicReplace(dir, "out.xlsx", func(tmpPath string) error {
		return os.WriteFile(tmpPath, []byte("new"), 0o644)
	})
	if err != nil {
		t.Fatalf("SaveAtomicReplace 失败：%v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "out.xlsx"))
	if err != nil {
		t.Fatalf("读取失败：%v", err)
	}
	if string(b) != "new" {
		t.Fatalf("内容不符合预期：%q", string(b))
	}
}
