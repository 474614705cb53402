package shortlink

import (
	"context"
	"errors"
)

// maxGenerateAttempts 是随机短码撞唯一索引后的重试上限。
// 64^7 的空间里撞一次已经很罕见，连撞三次基本说明存储层出了别的问题，
// 此时把冲突原样交给调用方。
const maxGenerateAttempts = 3

// Service 把“发短链/解析短链”编排在一个注入的 Store 之上。
//
// 设计原因：
// - 全部状态都在外部存储里，Service 自身无共享可变状态，可被任意并发调用
// - 依赖注入 Store 接口：生产环境用 postgres 实现，测试用内存实现
// - 这里不做日志、不做存储层之外的重试；错误原样返回给传输层
type Service struct {
	store      Store
	codeLength int
}

func NewService(store Store) *Service {
	return &Service{
		store:      store,
		codeLength: DefaultCodeLength,
	}
}

// CreateAnonymous 为匿名调用方创建短链，返回短码。
//
// 随机短码撞唯一约束时会换一个新短码做有限次重试；
// 重试耗尽后把 ErrCodeTaken 交给调用方（匿名调用方没有别的短码可提供）。
func (s *Service) CreateAnonymous(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	return s.createGenerated(ctx, rawURL, nil)
}

// CreateForOwner 为登录用户创建短链。
//
// slug 非空时走自定义短码路径：
//  1. 语法校验，具体拒绝原因（过短/非法字符）原样返回
//  2. FindByCode 预检查，已存在则返回 ErrSlugTaken——这一步只是为了
//     给常见情况一个友好的错误，真正闭合竞态的是 Create 底下的唯一约束
//  3. Create 阶段仍然冲突（两个请求同时抢同一个 slug）同样映射成 ErrSlugTaken
//
// slug 为空时与匿名路径一致，随机生成。
func (s *Service) CreateForOwner(ctx context.Context, rawURL string, ownerID int64, slug string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	if slug == "" {
		return s.createGenerated(ctx, rawURL, &ownerID)
	}

	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	// 预检查只是 advisory：查到存在可以提前给出友好错误，
	// 查不到也不代表能插入成功（check-then-act 窗口由存储层唯一索引兜底）。
	if _, err := s.store.FindByCode(ctx, slug); err == nil {
		return "", ErrSlugTaken
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	created, err := s.store.Create(ctx, ShortLink{Code: slug, URL: rawURL, OwnerID: &ownerID})
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return "", ErrSlugTaken
		}
		return "", err
	}
	return created.Code, nil
}

func (s *Service) createGenerated(ctx context.Context, rawURL string, ownerID *int64) (string, error) {
	var lastErr error
	for range maxGenerateAttempts {
		code := GenerateCode(s.codeLength)
		created, err := s.store.Create(ctx, ShortLink{Code: code, URL: rawURL, OwnerID: ownerID})
		if err == nil {
			return created.Code, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// Resolve 解析短码并记录一次访问，返回目标 URL。
//
// 这是唯一会改动 Clicks 的路径：每次调用在语义上就是“发生了一次跳转”，
// 所以绝不能被投机调用（预取/预热都不行）。计数与读取由 Store.ResolveVisit
// 在一个原子操作里完成，同一短码并发解析 M 次，计数恰好 +M。
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.store.ResolveVisit(ctx, code)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// Preview 返回短链元数据，不记访问。自定义短码预检查之外，
// 给“看一眼这个短码指向哪”这类只读场景用。
func (s *Service) Preview(ctx context.Context, code string) (ShortLink, error) {
	return s.store.FindByCode(ctx, code)
}

// ListForOwner 返回某个用户的短链列表，新的在前。
func (s *Service) ListForOwner(ctx context.Context, ownerID int64, limit int) ([]ShortLink, error) {
	return s.store.ListByOwner(ctx, ownerID, limit)
}

// DeleteForOwner 删除属主匹配的短链。
// 短码不存在、或存在但属主是别人，统一返回 ErrNotFound。
func (s *Service) DeleteForOwner(ctx context.Context, code string, ownerID int64) error {
	_, err := s.store.DeleteByOwner(ctx, code, ownerID)
	return err
}
