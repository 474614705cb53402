package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"shortly.local/internal/app/shortlink"
)

// MemoryStore 是 shortlink.Store 的内存实现，给测试和本地开发用。
//
// 原子性要求和 postgres 实现一致，只是手段换成了互斥锁：
// Create 的存在性检查 + 插入在同一把锁里完成（insert-if-absent），
// ResolveVisit 的自增 + 读取也在同一把锁里完成。
type MemoryStore struct {
	mu    sync.Mutex
	links map[string]*memLink
	seq   int64
}

type memLink struct {
	shortlink.ShortLink
	seq int64 // 插入顺序，ListByOwner 用它做“新的在前”的稳定排序
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*memLink),
	}
}

func (m *MemoryStore) Create(_ context.Context, link shortlink.ShortLink) (shortlink.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.Code]; exists {
		return shortlink.ShortLink{}, shortlink.ErrCodeTaken
	}

	m.seq++
	stored := memLink{ShortLink: link, seq: m.seq}
	stored.Clicks = 0
	stored.CreatedAt = time.Now()
	if link.OwnerID != nil {
		owner := *link.OwnerID
		stored.OwnerID = &owner
	}
	m.links[link.Code] = &stored
	return stored.ShortLink, nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code string) (shortlink.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortlink.ShortLink{}, shortlink.ErrNotFound
	}
	return link.ShortLink, nil
}

func (m *MemoryStore) ResolveVisit(_ context.Context, code string) (shortlink.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return shortlink.ShortLink{}, shortlink.ErrNotFound
	}
	link.Clicks++
	return link.ShortLink, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID int64, limit int) ([]shortlink.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*memLink
	for _, link := range m.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			matched = append(matched, link)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	result := make([]shortlink.ShortLink, 0, len(matched))
	for _, link := range matched {
		result = append(result, link.ShortLink)
	}
	return result, nil
}

func (m *MemoryStore) DeleteByOwner(_ context.Context, code string, ownerID int64) (shortlink.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok || link.OwnerID == nil || *link.OwnerID != ownerID {
		// 属主不符和不存在刻意不可区分
		return shortlink.ShortLink{}, shortlink.ErrNotFound
	}
	delete(m.links, code)
	return link.ShortLink, nil
}

// MemoryUsers 是账号存储的内存实现，配合 MemoryStore 使用。
type MemoryUsers struct {
	mu     sync.Mutex
	byName map[string]*User
	nextID int64
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byName: make(map[string]*User),
		nextID: 1,
	}
}

func (m *MemoryUsers) FindByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byName[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *user, nil
}

func (m *MemoryUsers) Register(_ context.Context, name string, password string) (int64, error) {
	if len(name) < 3 || len(name) > 32 {
		return -1, ErrInvalidUsername
	}
	if len(password) < 8 || len(password) > 72 {
		return -1, ErrInvalidPassword
	}
	// MinCost：测试里会反复注册，不需要生产强度
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return -1, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[name]; exists {
		return -1, ErrUserAlreadyExists
	}
	id := m.nextID
	m.nextID++
	m.byName[name] = &User{
		ID:           id,
		Username:     name,
		PasswordHash: string(passwordHash),
		Role:         "user",
	}
	return id, nil
}
