package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shortly.local/internal/platform/auth"
)

// 本包只做“传输层（transport）”工作：HTTP <-> 领域的翻译
// （参数解析、错误映射、响应格式）。领域逻辑在 internal/app/shortlink，
// SQL 在 internal/app/shortlink/repo。

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// mustUserID 从 context 取用户 ID；未登录时已写好 401 响应。
func mustUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not login")
		return 0, false
	}
	userID, err := strconv.ParseInt(identity.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid user id")
		return 0, false
	}
	return userID, true
}

// tryUserID 可选认证场景：未登录返回 (nil, true)，
// 身份损坏（token 里不是数字 id）返回 (nil, false) 并已写好响应。
func tryUserID(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		return nil, true
	}
	userID, err := strconv.ParseInt(identity.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid user id")
		return nil, false
	}
	return &userID, true
}
