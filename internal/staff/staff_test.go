package staff

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Directory {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "data", "staff.db"))
	if err != nil {
		t.Fatalf("Open 失败：%v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_SeedsDefaults(t *testing.T) {
	d := openTemp(t)

	entries, err := d.List()
	if err != nil {
		t.Fatalf("List 失败：%v", err)
	}
	if len(entries) != len(defaultEntries) {
		t.Fatalf("默认名单数量不符：got=%d want=%d", len(entries), len(defaultEntries))
	}

	snap, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot 失败：%v", err)
	}
	if id, ok := snap.Match("张静"); !ok || id != "8525" {
		t.Fatalf("默认名单匹配失败：id=%q ok=%v", id, ok)
	}
}

func TestUpsertDeleteList(t *testing.T) {
	d := openTemp(t)

	if err := d.Upsert("测试员", "1234"); err != nil {
		t.Fatalf("Upsert 失败：%v", err)
	}
	// 覆盖同名记录。
	if err := d.Upsert("测试员", "567X"); err != nil {
		t.Fatalf("覆盖 Upsert 失败：%v", err)
	}

	snap, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot 失败：%v", err)
	}
	if id, ok := snap.Match("测试员"); !ok || id != "567X" {
		t.Fatalf("覆盖后取值不符：id=%q ok=%v", id, ok)
	}

	ok, err := d.Delete("测试员")
	if err != nil || !ok {
		t.Fatalf("Delete 失败：ok=%v err=%v", ok, err)
	}
	ok, err = d.Delete("不存在的人")
	if err != nil {
		t.Fatalf("Delete 不存在记录报错：%v", err)
	}
	if ok {
		t.Fatalf("删除不存在的记录不应返回 true")
	}
}

func TestUpsert_Validation(t *testing.T) {
	d := openTemp(t)

	if err := d.Upsert("", "1234"); err == nil {
		t.Fatalf("空姓名应报错")
	}
	if err := d.Upsert("某人", "123"); err == nil {
		t.Fatalf("后四位长度不是 4 应报错")
	}
}

func TestSnapshot_ImmutableAgainstLaterMutation(t *testing.T) {
	d := openTemp(t)

	snap, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot 失败：%v", err)
	}

	// 快照之后的增删不影响已取快照（运行期一致性）。
	if err := d.Upsert("新人", "9999"); err != nil {
		t.Fatalf("Upsert 失败：%v", err)
	}
	if _, ok := d.mustSnap(t)["新人"]; !ok {
		t.Fatalf("新快照应包含新人")
	}
	if _, ok := snap["新人"]; ok {
		t.Fatalf("旧快照不应包含新人")
	}
}

func (d *Directory) mustSnap(t *testing.T) Snapshot {
	t.Helper()
	s, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot 失败：%v", err)
	}
	return s
}

func TestSnapshot_MatchNormalizes(t *testing.T) {
	d := openTemp(t)
	snap := d.mustSnap(t)

	if id, ok := snap.Match("0017-杨华"); !ok || id != "4241" {
		t.Fatalf("带前缀工号的姓名应可匹配：id=%q ok=%v", id, ok)
	}
	if _, ok := snap.Match("Yang Hua"); ok {
		t.Fatalf("无汉字输入不应匹配")
	}
	if _, ok := snap.Match(""); ok {
		t.Fatalf("空输入不应匹配")
	}
}
