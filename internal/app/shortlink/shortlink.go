package shortlink

import (
	"context"
	"errors"
	"time"
)

// ShortLink 是短链领域对象（domain model）的最小表示。
//
// 说明：
// - Code：短码（用于拼接成最终短链 URL，例如 https://s.example.com/{code}）
// - URL：原始长链接，创建后不可变
// - OwnerID：可空，匿名创建时为 nil
// - Clicks：累计跳转次数，只通过 Resolve 路径递增
//
// 设计原因：
// - 领域层只关心“业务含义”，不携带 HTTP/DB 细节（例如状态码、SQL 字段、JSON tag）
type ShortLink struct {
	Code      string
	URL       string
	OwnerID   *int64
	Clicks    int64
	CreatedAt time.Time
}

// 领域错误。上层（HTTP）只依赖这些哨兵值做状态码映射，
// 不需要关心底层是 pgx 的 23505 还是内存 map 的存在性检查。
var (
	ErrNotFound  = errors.New("short url not found")
	ErrCodeTaken = errors.New("short code already exists")
	ErrSlugTaken = errors.New("custom short code already exists")
)

// Store 是持久层契约。全部正确性关键的并发控制都压到这一层：
//
//   - Create 的唯一性必须由存储自身保证（唯一索引 / 持锁的存在性检查），
//     不允许“先查后插”留下竞态窗口；冲突返回 ErrCodeTaken。
//   - ResolveVisit 必须是原子的“自增并返回自增后的记录”，
//     不允许拆成读-改-写，否则同一短码并发跳转会丢更新。
//   - DeleteByOwner 只删除属主匹配的记录；不存在和属主不符
//     对调用方刻意不可区分（都返回 ErrNotFound），避免泄露他人短码的存在性。
//
// 设计原因：
// - 用接口表达契约：便于替换实现（postgres / 内存版），也便于测试
// - 领域核心自身无共享可变状态，无需在这层之上再加锁
type Store interface {
	Create(ctx context.Context, link ShortLink) (ShortLink, error)
	FindByCode(ctx context.Context, code string) (ShortLink, error)
	ResolveVisit(ctx context.Context, code string) (ShortLink, error)
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]ShortLink, error)
	DeleteByOwner(ctx context.Context, code string, ownerID int64) (ShortLink, error)
}
