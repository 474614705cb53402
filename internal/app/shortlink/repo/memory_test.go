package repo

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"shortly.local/internal/app/shortlink"
)

func TestMemoryStoreCreateConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, shortlink.ShortLink{Code: "abc", URL: "https://example.com/1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.Create(ctx, shortlink.ShortLink{Code: "abc", URL: "https://example.com/2"}); !errors.Is(err, shortlink.ErrCodeTaken) {
		t.Fatalf("duplicate create: got %v, want ErrCodeTaken", err)
	}

	// 冲突的写入不能覆盖已有记录
	link, err := store.FindByCode(ctx, "abc")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if link.URL != "https://example.com/1" {
		t.Fatalf("url overwritten: got %q", link.URL)
	}
}

func TestMemoryStoreFindDoesNotCount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, shortlink.ShortLink{Code: "abc", URL: "https://example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for range 5 {
		if _, err := store.FindByCode(ctx, "abc"); err != nil {
			t.Fatalf("FindByCode: %v", err)
		}
	}
	link, _ := store.FindByCode(ctx, "abc")
	if link.Clicks != 0 {
		t.Fatalf("FindByCode must not count visits, got %d", link.Clicks)
	}

	// ResolveVisit 才计数
	visited, err := store.ResolveVisit(ctx, "abc")
	if err != nil {
		t.Fatalf("ResolveVisit: %v", err)
	}
	if visited.Clicks != 1 {
		t.Fatalf("clicks after visit: got %d, want 1", visited.Clicks)
	}
}

func TestMemoryStoreResolveVisitUnknown(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.ResolveVisit(context.Background(), "nope"); !errors.Is(err, shortlink.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListByOwnerLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := int64(1)

	codes := []string{"one", "two", "three", "four"}
	for _, code := range codes {
		if _, err := store.Create(ctx, shortlink.ShortLink{Code: code, URL: "https://example.com", OwnerID: &owner}); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}

	links, err := store.ListByOwner(ctx, owner, 2)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("limit not applied: got %d links", len(links))
	}
	// 新的在前：同一属主连续插入也要按插入顺序倒排
	if links[0].Code != "four" || links[1].Code != "three" {
		t.Fatalf("order: got [%s %s], want [four three]", links[0].Code, links[1].Code)
	}
}

func TestMemoryStoreDeleteByOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := int64(1)

	if _, err := store.Create(ctx, shortlink.ShortLink{Code: "abc", URL: "https://example.com", OwnerID: &owner}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 不存在的短码与属主不匹配的短码给同一个错误，不泄露存在性
	if _, err := store.DeleteByOwner(ctx, "missing", owner); !errors.Is(err, shortlink.ErrNotFound) {
		t.Fatalf("delete missing: got %v, want ErrNotFound", err)
	}
	if _, err := store.DeleteByOwner(ctx, "abc", 99); !errors.Is(err, shortlink.ErrNotFound) {
		t.Fatalf("delete as stranger: got %v, want ErrNotFound", err)
	}

	deleted, err := store.DeleteByOwner(ctx, "abc", owner)
	if err != nil {
		t.Fatalf("delete as owner: %v", err)
	}
	if deleted.Code != "abc" {
		t.Fatalf("deleted code: got %q", deleted.Code)
	}
	if _, err := store.FindByCode(ctx, "abc"); !errors.Is(err, shortlink.ErrNotFound) {
		t.Fatalf("find after delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryUsersRegister(t *testing.T) {
	users := NewMemoryUsers()
	ctx := context.Background()

	id, err := users.Register(ctx, "alice", "longenough")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id <= 0 {
		t.Fatalf("unexpected id: %d", id)
	}
	u, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if u.ID != id || u.Username != "alice" || u.Role != "user" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("longenough")) != nil {
		t.Fatal("stored hash does not match password")
	}

	if _, err := users.Register(ctx, "alice", "otherpassword"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("duplicate register: got %v, want ErrUserAlreadyExists", err)
	}
	if _, err := users.Register(ctx, "ab", "longenough"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("short username: got %v, want ErrInvalidUsername", err)
	}
	if _, err := users.Register(ctx, "bob", "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("short password: got %v, want ErrInvalidPassword", err)
	}
}

func TestMemoryUsersFindByUsername(t *testing.T) {
	users := NewMemoryUsers()
	ctx := context.Background()

	if _, err := users.FindByUsername(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}

	id, err := users.Register(ctx, "alice", "longenough")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	found, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if found.ID != id {
		t.Fatalf("id mismatch: %d vs %d", found.ID, id)
	}
}
