package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"shortly.local/internal/app/shortlink"
	"shortly.local/internal/platform/auth"
	"shortly.local/internal/platform/httpmiddleware"
)

// RegisterAPIRoutes 在给定的子路由下挂载短链 API（例如 /api/v1）。
//
// 设计原因：
// - cmd/api 只负责组装和挂载，各业务模块自己提供 Register*Routes，避免路由散落在 main.go
// - API 路由用于机器调用（JSON），统一放在 /api/v1 下便于版本化
func RegisterAPIRoutes(api *mux.Router, svc *shortlink.Service, users UserStore, ts auth.TokenService, baseURL string) {
	// 无需登录的路由（带可选认证：有 token 就带上身份）
	api.Use(mux.MiddlewareFunc(httpmiddleware.AuthOptional(ts)))

	api.Handle("/shortlinks", NewCreateHandler(svc, baseURL)).Methods(http.MethodPost)
	api.Handle("/shortlinks/{code}", NewPreviewHandler(svc, baseURL)).Methods(http.MethodGet)

	api.Handle("/auth/register", NewRegisterHandler(users)).Methods(http.MethodPost)
	api.Handle("/auth/login", NewLoginHandler(users, ts)).Methods(http.MethodPost)

	// 需要登录的路由
	usersRouter := api.PathPrefix("/users").Subrouter()
	usersRouter.Use(mux.MiddlewareFunc(httpmiddleware.AuthRequired(ts)))
	usersRouter.Handle("/me", NewUserMeHandler()).Methods(http.MethodGet)
	usersRouter.Handle("/links", NewMineHandler(svc, baseURL)).Methods(http.MethodGet)
	usersRouter.Handle("/links/{code}", NewDeleteHandler(svc)).Methods(http.MethodDelete)
}

// RegisterPublicRoutes 在根路由挂载跳转入口。
//
// 跳转刻意不放在 /api/v1 下——短链的使用体验是直接在浏览器输入
// <base>/{code}。注意必须在静态路由（/healthz 等）之后注册，
// gorilla/mux 按注册顺序匹配。
func RegisterPublicRoutes(r *mux.Router, svc *shortlink.Service) {
	r.Handle("/{code}", NewRedirectHandler(svc)).Methods(http.MethodGet)
}
