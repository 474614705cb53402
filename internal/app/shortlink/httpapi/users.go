package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"shortly.local/internal/app/shortlink/repo"
	"shortly.local/internal/platform/auth"
)

// UserStore 是账号存储的最小面。postgres 实现是 repo.UsersRepo，
// 测试用 repo.MemoryUsers。
type UserStore interface {
	Register(ctx context.Context, name string, password string) (int64, error)
	FindByUsername(ctx context.Context, username string) (repo.User, error)
}

type RegisterRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
}

func NewRegisterHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		userID, err := users.Register(r.Context(), req.UserName, req.Password)
		if err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExists) {
				writeError(w, http.StatusConflict, err.Error())
			} else if errors.Is(err, repo.ErrInvalidPassword) || errors.Is(err, repo.ErrInvalidUsername) {
				writeError(w, http.StatusBadRequest, err.Error())
			} else {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		writeJSON(w, http.StatusCreated, RegisterResponse{
			ID:       userID,
			UserName: req.UserName,
		})
	}
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func NewLoginHandler(users UserStore, ts auth.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		dbctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		user, err := users.FindByUsername(dbctx, req.UserName)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				// 用户不存在和密码错误统一回 401，不泄露哪个环节错了
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			slog.Error("find user failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := ts.Sign(strconv.FormatInt(user.ID, 10), user.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "sign failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func NewUserMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.GetIdentity(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "missing identity")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"user_id": id.UserID,
			"role":    id.Role,
		})
	}
}
