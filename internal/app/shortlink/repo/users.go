package repo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrInvalidUsername = errors.New("username is not allowed")
var ErrInvalidPassword = errors.New("password is not allowed")

// UsersRepo 管理账号。短链核心只通过 owner id 引用它，
// 账号的内部形态（密码哈希、角色）不进入领域层。
type UsersRepo struct {
	db *pgxpool.Pool
}

func NewUsersRepo(db *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{db: db}
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

func (u *UsersRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := u.db.QueryRow(dbctx, "SELECT id, username, password_hash, role FROM users WHERE username=$1 LIMIT 1", username)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		slog.Error("users: find failed", "err", err)
		return User{}, err
	}
	return user, nil
}

// Register 注册新用户。用户名唯一性由唯一索引 + ON CONFLICT DO NOTHING 保证，
// 没插进去（RETURNING 无行）就是已存在。
func (u *UsersRepo) Register(ctx context.Context, name string, password string) (int64, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 32 {
		return -1, ErrInvalidUsername
	}
	// bcrypt 的输入上限是 72 字节
	if len(password) < 8 || len(password) > 72 {
		return -1, ErrInvalidPassword
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("users: hash failed", "err", err)
		return -1, err
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	if err := u.db.
		QueryRow(dbctx, "INSERT INTO users (username,password_hash,role) VALUES ($1,$2,'user') ON CONFLICT (username) DO NOTHING RETURNING id", name, string(passwordHash)).
		Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return -1, ErrUserAlreadyExists
		}
		slog.Error("users: insert failed", "err", err)
		return -1, err
	}

	return id, nil
}
