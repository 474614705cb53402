package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"shortly.local/internal/app/shortlink"
	"shortly.local/internal/app/shortlink/cache"
	"shortly.local/internal/platform/metrics"
)

// pg 唯一约束冲突
const uniqueViolation = "23505"

// ShortlinksRepo 是 shortlink.Store 的 postgres 实现。
//
// 正确性要点：
// - 短码唯一性由 short_links.code 上的唯一索引保证，Create 只负责把
//   23505 翻译成领域错误，不做任何先查后插
// - ResolveVisit 用单条 UPDATE ... RETURNING 完成“自增并取回”，
//   并发解析同一短码时由行锁排队，计数不会丢
// - cache/bloom 都是可选的旁路优化，传 nil 直接退化为纯 DB 路径
type ShortlinksRepo struct {
	db    *pgxpool.Pool
	cache *cache.ShortlinkCache
	bloom *cache.BloomFilter
}

func NewShortlinksRepo(db *pgxpool.Pool, cache *cache.ShortlinkCache, bloom *cache.BloomFilter) *ShortlinksRepo {
	return &ShortlinksRepo{
		db:    db,
		cache: cache,
		bloom: bloom,
	}
}

// WarmBloom 启动时把已有短码灌进布隆过滤器。
// 失败时返回错误，调用方应当放弃使用 bloom（传 nil），而不是带着空过滤器上线——
// 空过滤器会把所有已有短码都判成“一定不存在”。
func (s *ShortlinksRepo) WarmBloom(ctx context.Context) (int, error) {
	if s.bloom == nil {
		return 0, nil
	}
	dbctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.Query(dbctx, "SELECT code FROM short_links")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return n, err
		}
		s.bloom.Add(code)
		n++
	}
	return n, rows.Err()
}

func (s *ShortlinksRepo) Create(ctx context.Context, link shortlink.ShortLink) (shortlink.ShortLink, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created := link
	err := s.db.
		QueryRow(dbctx,
			"INSERT INTO short_links (code, url, user_id) VALUES ($1, $2, $3) RETURNING click_count, created_at",
			link.Code, link.URL, link.OwnerID).
		Scan(&created.Clicks, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shortlink.ShortLink{}, shortlink.ErrCodeTaken
		}
		slog.Error("shortlinks: insert failed", "err", err)
		return shortlink.ShortLink{}, err
	}

	if s.bloom != nil {
		s.bloom.Add(created.Code)
	}
	// 写缓存/覆盖负缓存：创建成功后立刻写入，避免此前命中 "__nil__" 导致短码暂时不可用。
	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_ = s.cache.Set(cacheCtx, created.Code, created.URL)
	}
	return created, nil
}

// FindByCode 纯查询，不计数（自定义短码预检查、元数据预览用）。
// 缓存里只有 code -> url，而这里要返回完整记录（含 Clicks），
// 所以读路径只用 bloom 挡不存在的短码，数据一律取自 DB；
// 查询结果仍回写进缓存，供解析路径的负缓存判断使用。
func (s *ShortlinksRepo) FindByCode(ctx context.Context, code string) (shortlink.ShortLink, error) {
	if s.bloom != nil && !s.bloom.MightExist(code) {
		metrics.CacheOperations.WithLabelValues("bloom", "reject").Inc()
		return shortlink.ShortLink{}, shortlink.ErrNotFound
	}

	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var link shortlink.ShortLink
	err := s.db.
		QueryRow(dbctx, "SELECT code, url, user_id, click_count, created_at FROM short_links WHERE code=$1", code).
		Scan(&link.Code, &link.URL, &link.OwnerID, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if s.cache != nil {
				_ = s.cache.SetNotFound(ctx, code)
			}
			return shortlink.ShortLink{}, shortlink.ErrNotFound
		}
		slog.Error("shortlinks: find failed", "err", err)
		return shortlink.ShortLink{}, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, code, link.URL)
	}
	return link, nil
}

// ResolveVisit 原子地把 click_count +1 并返回自增后的记录。
//
// 注意缓存在这条路径上的边界：正缓存命中不能跳过自增（那会丢计数），
// 所以这里只消费负缓存/布隆过滤器来挡住不存在短码的穿透，
// 存在的短码永远落到这条单语句 UPDATE 上。
func (s *ShortlinksRepo) ResolveVisit(ctx context.Context, code string) (shortlink.ShortLink, error) {
	if s.bloom != nil && !s.bloom.MightExist(code) {
		metrics.CacheOperations.WithLabelValues("bloom", "reject").Inc()
		return shortlink.ShortLink{}, shortlink.ErrNotFound
	}
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, code); hit == cache.NotFoundSentinel {
			return shortlink.ShortLink{}, shortlink.ErrNotFound
		}
	}

	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var link shortlink.ShortLink
	err := s.db.
		QueryRow(dbctx,
			"UPDATE short_links SET click_count = click_count + 1 WHERE code=$1 RETURNING code, url, user_id, click_count, created_at",
			code).
		Scan(&link.Code, &link.URL, &link.OwnerID, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if s.cache != nil {
				_ = s.cache.SetNotFound(ctx, code)
			}
			return shortlink.ShortLink{}, shortlink.ErrNotFound
		}
		slog.Error("shortlinks: resolve failed", "err", err)
		return shortlink.ShortLink{}, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, code, link.URL)
	}
	return link, nil
}

func (s *ShortlinksRepo) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]shortlink.ShortLink, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(dbctx,
		"SELECT code, url, user_id, click_count, created_at FROM short_links WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2",
		ownerID, limit)
	if err != nil {
		slog.Error("shortlinks: list failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var result []shortlink.ShortLink
	for rows.Next() {
		var link shortlink.ShortLink
		if err := rows.Scan(&link.Code, &link.URL, &link.OwnerID, &link.Clicks, &link.CreatedAt); err != nil {
			slog.Error("shortlinks: list scan failed", "err", err)
			return nil, err
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		slog.Error("shortlinks: list rows failed", "err", err)
		return nil, err
	}
	return result, nil
}

// DeleteByOwner 只在属主匹配时删除。WHERE 里同时带 code 和 user_id，
// “不存在”和“是别人的”天然都走 ErrNoRows，调用方无从区分。
func (s *ShortlinksRepo) DeleteByOwner(ctx context.Context, code string, ownerID int64) (shortlink.ShortLink, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var link shortlink.ShortLink
	err := s.db.
		QueryRow(dbctx,
			"DELETE FROM short_links WHERE code=$1 AND user_id=$2 RETURNING code, url, user_id, click_count, created_at",
			code, ownerID).
		Scan(&link.Code, &link.URL, &link.OwnerID, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortlink.ShortLink{}, shortlink.ErrNotFound
		}
		slog.Error("shortlinks: delete failed", "err", err)
		return shortlink.ShortLink{}, err
	}

	// bloom 不支持删除（会误伤其他元素），留着这个短码只意味着多一次 DB 查询
	if s.cache != nil {
		_ = s.cache.Delete(ctx, link.Code)
	}
	return link, nil
}
