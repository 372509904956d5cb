// Package staff 维护“姓名 → 工号后四位”的本地审核人员库。
//
// 存储为单文件 SQLite（单连接 + WAL）；批处理运行只消费 Snapshot ——
// 运行开始时取一次不可变快照，之后人员库的并发增删不影响在途运行。
package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/LinNlc/mdxl/internal/textutil"
)

// Entry 是人员库的一条记录。姓名唯一。
type Entry struct {
	Name    string
	IDLast4 string
}

// defaultEntries 在人员库为空时写入（与旧版工具内置名单一致）。
var defaultEntries = []Entry{
	{"梁应伟", "001X"},
	{"邹林伶", "5829"},
	{"赵志强", "7299"},
	{"杨华", "4241"},
	{"廖政", "1610"},
	{"万亭", "174X"},
	{"任雪梅", "5802"},
	{"冉小娟", "1363"},
	{"张静", "8525"},
}

// Directory 是人员库的仓储句柄。所有修改同步落盘（sqlite 事务语义）。
type Directory struct {
	db *sql.DB
}

// Open 打开（必要时创建并初始化）path 处的人员库。
// 首次创建时写入默认名单。
func Open(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("人员库路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建人员库目录失败：%w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开人员库失败：%w", err)
	}
	// 单写者场景：固定单连接，避免 SQLITE_BUSY。
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &Directory{db: db}
	if err := d.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Directory) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *Directory) init(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("设置 WAL 失败：%w", err)
	}
	if _, err := d.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("设置 busy_timeout 失败：%w", err)
	}
	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS staff (
		name     TEXT PRIMARY KEY,
		id_last4 TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("初始化人员表失败：%w", err)
	}

	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff`).Scan(&n); err != nil {
		return fmt.Errorf("读取人员表失败：%w", err)
	}
	if n > 0 {
		return nil
	}
	for _, e := range defaultEntries {
		if _, err := d.db.ExecContext(ctx,
			`INSERT INTO staff (name, id_last4) VALUES (?, ?)`, e.Name, e.IDLast4); err != nil {
			return fmt.Errorf("写入默认名单失败：%w", err)
		}
	}
	return nil
}

// Upsert 新增或覆盖一条人员记录。
// id_last4 固定 4 位（身份证后四位，允许校验位 X）。
func (d *Directory) Upsert(name, idLast4 string) error {
	name = strings.TrimSpace(name)
	idLast4 = strings.TrimSpace(idLast4)
	if name == "" {
		return errors.New("姓名不能为空")
	}
	if utf8.RuneCountInString(idLast4) != 4 {
		return fmt.Errorf("工号后四位必须是 4 位，实际是 %q", idLast4)
	}
	_, err := d.db.Exec(`INSERT INTO staff (name, id_last4) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET id_last4 = excluded.id_last4`, name, idLast4)
	return err
}

// Delete 删除一条人员记录；返回是否确实存在并被删除。
func (d *Directory) Delete(name string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM staff WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List 返回全部人员记录，按姓名字典序（稳定输出）。
func (d *Directory) List() ([]Entry, error) {
	rows, err := d.db.Query(`SELECT name, id_last4 FROM staff ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, 16)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.IDLast4); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Snapshot 取一次不可变快照。一次批处理运行自始至终只使用同一个快照，
// 保证匹配结果的幂等性。
func (d *Directory) Snapshot() (Snapshot, error) {
	entries, err := d.List()
	if err != nil {
		return nil, err
	}
	s := make(Snapshot, len(entries))
	for _, e := range entries {
		s[e.Name] = e.IDLast4
	}
	return s, nil
}

// Snapshot 是姓名 → 工号后四位的只读映射。
// 约定：创建后不再修改（map 本身不做并发保护）。
type Snapshot map[string]string

// Match 对原始单元格内容做汉字抽取归一化后精确匹配。
// 无汉字或未命中 → ("", false)。抽取只去掉非汉字字符；含汉字的注记
// （如 "张静(外包)"）会改变抽取结果，按不同姓名处理。
func (s Snapshot) Match(raw string) (string, bool) {
	name := textutil.ExtractChineseName(raw)
	if name == "" {
		return "", false
	}
	id, ok := s[name]
	return id, ok
}
