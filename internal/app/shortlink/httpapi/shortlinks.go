package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"shortly.local/internal/app/shortlink"
	"shortly.local/internal/platform/metrics"
)

type CreateRequest struct {
	URL  string `json:"url"`
	Slug string `json:"slug,omitempty"`
}

type CreateResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short_url"`
	URL      string `json:"url"`
}

type LinkResponse struct {
	Code      string    `json:"code"`
	ShortURL  string    `json:"short_url"`
	URL       string    `json:"url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

func shortURL(baseURL, code string) string {
	return baseURL + "/" + code
}

// NewCreateHandler 创建短链。
//
// 匿名可用；携带自定义 slug 必须登录（匿名短码全部随机生成）。
// 错误映射：
// - 校验类（URL 不合法、slug 过短/非法字符）-> 400，带具体原因
// - 冲突类（slug 被占用、随机码重试耗尽）-> 409
func NewCreateHandler(svc *shortlink.Service, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}

		ownerID, ok := tryUserID(w, r)
		if !ok {
			return
		}

		slug := strings.TrimSpace(req.Slug)
		if slug != "" && ownerID == nil {
			writeError(w, http.StatusUnauthorized, "custom slug requires login")
			return
		}

		var code string
		var err error
		if ownerID != nil {
			code, err = svc.CreateForOwner(r.Context(), req.URL, *ownerID, slug)
		} else {
			code, err = svc.CreateAnonymous(r.Context(), req.URL)
		}
		if err != nil {
			switch {
			case errors.Is(err, shortlink.ErrInvalidURL),
				errors.Is(err, shortlink.ErrSlugTooShort),
				errors.Is(err, shortlink.ErrSlugChars):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, shortlink.ErrSlugTaken),
				errors.Is(err, shortlink.ErrCodeTaken):
				writeError(w, http.StatusConflict, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "shortlink create failed")
			}
			return
		}

		kind := "generated"
		if slug != "" {
			kind = "custom"
		}
		metrics.ShortlinksCreated.WithLabelValues(kind).Inc()

		writeJSON(w, http.StatusCreated, CreateResponse{
			Code:     code,
			ShortURL: shortURL(baseURL, code),
			URL:      req.URL,
		})
	}
}

// NewRedirectHandler 解析短码并 302 到目标 URL。
// 这是唯一的计数路径：Resolve 内部原子 +1，handler 不再做任何计数动作。
func NewRedirectHandler(svc *shortlink.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		url, err := svc.Resolve(r.Context(), code)
		if err != nil {
			if errors.Is(err, shortlink.ErrNotFound) {
				writeError(w, http.StatusNotFound, "short URL not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		metrics.ShortlinkRedirects.Inc()

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// NewPreviewHandler 返回短链元数据，不产生点击。
func NewPreviewHandler(svc *shortlink.Service, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		link, err := svc.Preview(r.Context(), code)
		if err != nil {
			if errors.Is(err, shortlink.ErrNotFound) {
				writeError(w, http.StatusNotFound, "short URL not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, LinkResponse{
			Code:      link.Code,
			ShortURL:  shortURL(baseURL, link.Code),
			URL:       link.URL,
			Clicks:    link.Clicks,
			CreatedAt: link.CreatedAt,
		})
	}
}

// NewMineHandler 返回当前用户的短链，新的在前。
func NewMineHandler(svc *shortlink.Service, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustUserID(w, r)
		if !ok {
			return
		}
		links, err := svc.ListForOwner(r.Context(), userID, 50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		result := make([]LinkResponse, 0, len(links))
		for _, link := range links {
			result = append(result, LinkResponse{
				Code:      link.Code,
				ShortURL:  shortURL(baseURL, link.Code),
				URL:       link.URL,
				Clicks:    link.Clicks,
				CreatedAt: link.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// NewDeleteHandler 删除当前用户自己的短链。
// 别人的短链和不存在的短链都回 404——存在性不外泄。
func NewDeleteHandler(svc *shortlink.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		userID, ok := mustUserID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteForOwner(r.Context(), code, userID); err != nil {
			if errors.Is(err, shortlink.ErrNotFound) {
				writeError(w, http.StatusNotFound, "short URL not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	}
}
