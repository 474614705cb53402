package httpmiddleware

import (
	"net/http"
	"strings"

	"shortly.local/internal/platform/auth"
)

// parseBearer 解析 Authorization header 中的 Bearer token。
// 格式不对返回空字符串。
func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

// AuthRequired 要求请求必须携带有效的 JWT token。
func AuthRequired(ts auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			token := parseBearer(header)
			if token == "" {
				http.Error(w, "invalid authorization format", http.StatusUnauthorized)
				return
			}
			claim, err := ts.Verify(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{
				UserID: claim.UserID,
				Role:   claim.Role,
			}))
			next.ServeHTTP(w, r)
		})
	}
}

// AuthOptional 可选认证：有合法 token 就解析身份，没有或无效就按匿名继续。
func AuthOptional(ts auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := parseBearer(r.Header.Get("Authorization")); token != "" {
				if claim, err := ts.Verify(token); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{
						UserID: claim.UserID,
						Role:   claim.Role,
					}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
