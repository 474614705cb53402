package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options 控制迁移来源。Dir 为空时按“当前目录 -> 可执行文件目录”的顺序
// 探测 migrations/。
type Options struct {
	Dir string
}

// Result 汇报这一次 Up 做了什么，调用方拿去打日志。
type Result struct {
	Dir          string
	AppliedFiles []string
	SkippedFiles []string
}

// Up 把目录里尚未执行的 .sql 文件按文件名顺序跑一遍。
//
// 约定：
// - 文件名就是版本号（0001_xxx.sql），排序即执行顺序，所以必须零填充编号
// - 已执行的文件记录在 schema_migrations 表里，重复启动直接跳过
// - 每个文件在自己的事务里执行，失败的文件不会被记成已执行，
//   修好后重启即可续跑
// - 只进不退：不提供回滚，需要撤销就写一个新的迁移文件
func Up(ctx context.Context, db *pgxpool.Pool, opts Options) (*Result, error) {
	dir, err := locateDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, err
	}

	files, err := sqlFiles(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Dir: dir}
	for _, name := range files {
		done, err := alreadyApplied(ctx, db, name)
		if err != nil {
			return nil, err
		}
		if done {
			res.SkippedFiles = append(res.SkippedFiles, name)
			continue
		}
		if err := applyOne(ctx, db, filepath.Join(dir, name), name); err != nil {
			return nil, err
		}
		res.AppliedFiles = append(res.AppliedFiles, name)
	}
	return res, nil
}

func ensureVersionTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
	return err
}

// sqlFiles 列出目录下的 .sql 文件名并按字典序排序。
// 迁移目录是平的，不递归子目录。
func sqlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func alreadyApplied(ctx context.Context, db *pgxpool.Pool, version string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	return exists, err
}

// applyOne 在单个事务里执行迁移文件并写入版本记录。
// 事务保证“执行了但没记录”这种半截状态不会出现。
func applyOne(ctx context.Context, db *pgxpool.Pool, path string, version string) error {
	sqlText, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlText)); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1,$2)`, version, time.Now()); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return tx.Commit(ctx)
}

// locateDir 解析迁移目录。显式指定优先；否则先看工作目录
// （本地开发：go run 在仓库根），再看可执行文件旁边（容器部署：
// 镜像里迁移文件和二进制放在一起）。
func locateDir(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return filepath.Clean(explicit), nil
	}

	if dir, err := filepath.Abs("migrations"); err == nil {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, nil
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate migrations dir: %w", err)
	}
	dir := filepath.Join(filepath.Dir(exe), "migrations")
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return "", fmt.Errorf("migrations dir not found (tried %s)", dir)
	}
	return dir, nil
}
