package api

import (
	"errors"
	"net/http"
	"strconv"

	"minicms/internal/biz"

	"github.com/gorilla/mux"
)

// BlogHandler 公开博客页面
type BlogHandler struct {
	view *View
	blog BlogService
}

// NewBlogHandler 创建 BlogHandler
func NewBlogHandler(view *View, blog BlogService) *BlogHandler {
	return &BlogHandler{view: view, blog: blog}
}

// RegisterRoutes 注册路由到 mux.Router
func (h *BlogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.home).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id:[0-9]+}", h.post).Methods(http.MethodGet)
}

func (h *BlogHandler) home(w http.ResponseWriter, r *http.Request) {
	cards, err := h.blog.Home(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "public/home", Page{Title: "MiniCMS", Data: cards})
}

func (h *BlogHandler) post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.view.NotFound(w, r)
		return
	}
	post, err := h.blog.Post(r.Context(), id)
	if errors.Is(err, biz.ErrPostNotFound) {
		h.view.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "public/post", Page{
		Title:       post.Title,
		Description: post.MetaDescription,
		Data:        post,
	})
}
