package api

import (
	"errors"
	"net/http"
	"strconv"

	"minicms/internal/biz"
	"minicms/internal/router"
	"minicms/internal/session"
)

// PostHandler 文章管理
type PostHandler struct {
	view  *View
	posts *biz.PostUsecase
	media *biz.MediaUsecase
}

// NewPostHandler 创建 PostHandler
func NewPostHandler(view *View, posts *biz.PostUsecase, media *biz.MediaUsecase) *PostHandler {
	return &PostHandler{view: view, posts: posts, media: media}
}

// RegisterRoutes registers the post routes. Literal segments come before
// the {slug} catch-alls that would otherwise shadow them.
func (h *PostHandler) RegisterRoutes(rt *router.Router, admin router.Guard) {
	rt.Get("/posts", h.index)
	rt.Get("/posts/create", h.create)
	rt.Post("/posts/store", h.store)
	rt.Get("/posts/{slug}/edit", h.edit)
	rt.Post("/posts/{slug}/update", h.update)
	rt.Get("/posts/{slug}/delete", h.confirmDelete, admin)
	rt.Post("/posts/{slug}/delete", h.destroy, admin)
	rt.Post("/posts/{slug}/restore", h.restore, admin)
	rt.Get("/posts/{slug}", h.show)
}

func (h *PostHandler) index(w http.ResponseWriter, r *http.Request, _ []string) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/posts_index", Page{Title: "Posts", Data: posts})
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request, _ []string) {
	h.renderForm(w, r, "New post", "/posts/store", map[string]string{"status": biz.StatusDraft})
}

func (h *PostHandler) store(w http.ResponseWriter, r *http.Request, _ []string) {
	form, old, err := postForm(r)
	if err != nil {
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid form submission."}, nil, "/posts/create")
		return
	}
	if _, err := h.posts.Create(r.Context(), form); err != nil {
		h.view.FormError(w, r, err, old, "/posts/create")
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Post created.", "/posts")
}

func (h *PostHandler) edit(w http.ResponseWriter, r *http.Request, params []string) {
	p, ok := h.find(w, r, params[0])
	if !ok {
		return
	}
	h.renderForm(w, r, "Edit post", "/posts/"+p.Slug+"/update", postValues(p))
}

func (h *PostHandler) update(w http.ResponseWriter, r *http.Request, params []string) {
	slug := params[0]
	form, old, err := postForm(r)
	if err != nil {
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid form submission."}, nil, "/posts/"+slug+"/edit")
		return
	}
	_, err = h.posts.Update(r.Context(), slug, form)
	if errors.Is(err, biz.ErrPostNotFound) {
		h.view.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.FormError(w, r, err, old, "/posts/"+slug+"/edit")
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Post updated.", "/posts")
}

func (h *PostHandler) show(w http.ResponseWriter, r *http.Request, params []string) {
	p, ok := h.find(w, r, params[0])
	if !ok {
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/posts_show", Page{Title: p.Title, Data: p})
}

func (h *PostHandler) confirmDelete(w http.ResponseWriter, r *http.Request, params []string) {
	p, ok := h.find(w, r, params[0])
	if !ok {
		return
	}
	if p.Deleted() {
		h.view.Flash(w, r, session.FlashError, "Post is already in the trash.", "/posts")
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/posts_delete", Page{Title: "Delete post", Data: p})
}

func (h *PostHandler) destroy(w http.ResponseWriter, r *http.Request, params []string) {
	err := h.posts.Delete(r.Context(), params[0])
	if errors.Is(err, biz.ErrPostNotFound) {
		h.view.Flash(w, r, session.FlashError, "Post not found.", "/posts")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Post moved to the trash.", "/posts")
}

func (h *PostHandler) restore(w http.ResponseWriter, r *http.Request, params []string) {
	err := h.posts.Restore(r.Context(), params[0])
	if errors.Is(err, biz.ErrPostNotFound) {
		h.view.Flash(w, r, session.FlashError, "Post not found.", "/posts")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Post restored.", "/posts")
}

func (h *PostHandler) find(w http.ResponseWriter, r *http.Request, slug string) (*biz.Post, bool) {
	p, err := h.posts.Get(r.Context(), slug)
	if errors.Is(err, biz.ErrPostNotFound) {
		h.view.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, title, action string, values map[string]string) {
	media, err := h.media.List(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/posts_form", Page{
		Title: title,
		Old:   values,
		Data:  postFormData{Action: action, Media: media},
	})
}

var postFields = []string{"title", "content", "status", "slug", "featured_media_id", "published_at", "meta_title", "meta_description"}

func postForm(r *http.Request) (biz.PostForm, map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return biz.PostForm{}, nil, err
	}
	old := make(map[string]string, len(postFields))
	for _, f := range postFields {
		old[f] = r.PostForm.Get(f)
	}
	return biz.PostForm{
		Title:           old["title"],
		Content:         old["content"],
		Status:          old["status"],
		Slug:            old["slug"],
		FeaturedMediaID: old["featured_media_id"],
		PublishedAt:     old["published_at"],
		MetaTitle:       old["meta_title"],
		MetaDescription: old["meta_description"],
	}, old, nil
}

// postValues prefills the editor from a stored post.
func postValues(p *biz.Post) map[string]string {
	v := map[string]string{
		"title":   p.Title,
		"content": p.Content,
		"status":  p.Status,
		"slug":    p.Slug,
	}
	if p.FeaturedMediaID != nil {
		v["featured_media_id"] = strconv.FormatInt(*p.FeaturedMediaID, 10)
	}
	if p.PublishedAt != nil {
		v["published_at"] = p.PublishedAt.Format("2006-01-02T15:04")
	}
	if p.MetaTitle != nil {
		v["meta_title"] = *p.MetaTitle
	}
	if p.MetaDescription != nil {
		v["meta_description"] = *p.MetaDescription
	}
	return v
}
