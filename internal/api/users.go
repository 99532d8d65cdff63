package api

import (
	"errors"
	"net/http"
	"strconv"

	"minicms/internal/auth"
	"minicms/internal/biz"
	"minicms/internal/router"
	"minicms/internal/session"
)

// UserHandler 用户管理，仅管理员可用
type UserHandler struct {
	view  *View
	users *biz.UserUsecase
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(view *View, users *biz.UserUsecase) *UserHandler {
	return &UserHandler{view: view, users: users}
}

// RegisterRoutes registers the user routes behind the admin guard.
func (h *UserHandler) RegisterRoutes(rt *router.Router, admin router.Guard) {
	rt.Get("/users", h.index, admin)
	rt.Get("/users/create", h.create, admin)
	rt.Post("/users/store", h.store, admin)
	rt.Get("/users/{id}/edit", h.withID(h.edit), admin)
	rt.Post("/users/{id}/update", h.withID(h.update), admin)
	rt.Post("/users/{id}/reset-password", h.withID(h.resetPassword), admin)
	rt.Post("/users/{id}/disable", h.withID(h.disable), admin)
	rt.Post("/users/{id}/enable", h.withID(h.enable), admin)
}

// withID parses the {id} capture; anything but a positive integer is 404.
func (h *UserHandler) withID(next func(http.ResponseWriter, *http.Request, int64)) router.Handler {
	return func(w http.ResponseWriter, r *http.Request, params []string) {
		id, err := strconv.ParseInt(params[0], 10, 64)
		if err != nil || id <= 0 {
			h.view.NotFound(w, r)
			return
		}
		next(w, r, id)
	}
}

func (h *UserHandler) index(w http.ResponseWriter, r *http.Request, _ []string) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/users_index", Page{Title: "Users", Data: users})
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request, _ []string) {
	h.renderForm(w, r, "New user", userFormData{Action: "/users/store", Creating: true}, nil)
}

func (h *UserHandler) store(w http.ResponseWriter, r *http.Request, _ []string) {
	if err := r.ParseForm(); err != nil {
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid form submission."}, nil, "/users/create")
		return
	}
	form := biz.UserForm{
		Email:    r.PostForm.Get("email"),
		Name:     r.PostForm.Get("name"),
		Password: r.PostForm.Get("password"),
		RoleID:   r.PostForm.Get("role_id"),
	}
	old := map[string]string{"email": form.Email, "name": form.Name, "role_id": form.RoleID}

	if _, err := h.users.Create(r.Context(), form); err != nil {
		h.view.FormError(w, r, err, old, "/users/create")
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "User created.", "/users")
}

func (h *UserHandler) edit(w http.ResponseWriter, r *http.Request, id int64) {
	u, err := h.users.Get(r.Context(), id)
	if errors.Is(err, biz.ErrUserNotFound) {
		h.view.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	values := map[string]string{
		"email":   u.Email,
		"name":    u.Name,
		"role_id": strconv.FormatInt(u.RoleID, 10),
	}
	h.renderForm(w, r, "Edit user", userFormData{Action: editPath(id, "update"), ID: id}, values)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid form submission."}, nil, editPath(id, "edit"))
		return
	}
	form := biz.UserForm{Name: r.PostForm.Get("name"), RoleID: r.PostForm.Get("role_id")}

	err := h.users.Update(r.Context(), id, form)
	if errors.Is(err, biz.ErrUserNotFound) {
		h.view.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.FormError(w, r, err, map[string]string{"name": form.Name, "role_id": form.RoleID}, editPath(id, "edit"))
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "User updated.", "/users")
}

func (h *UserHandler) resetPassword(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid form submission."}, nil, editPath(id, "edit"))
		return
	}
	err := h.users.ResetPassword(r.Context(), id, r.PostForm.Get("password"))
	if errors.Is(err, biz.ErrUserNotFound) {
		h.view.NotFound(w, r)
		return
	}
	if err != nil {
		h.view.FormError(w, r, err, nil, editPath(id, "edit"))
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Password reset.", "/users")
}

func (h *UserHandler) disable(w http.ResponseWriter, r *http.Request, id int64) {
	if u := auth.UserFromContext(r.Context()); u != nil && u.ID == id {
		h.view.Flash(w, r, session.FlashError, "You cannot disable your own account.", "/users")
		return
	}
	h.setActive(w, r, h.users.Disable(r.Context(), id), "User disabled.")
}

func (h *UserHandler) enable(w http.ResponseWriter, r *http.Request, id int64) {
	h.setActive(w, r, h.users.Enable(r.Context(), id), "User enabled.")
}

func (h *UserHandler) setActive(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, biz.ErrUserNotFound) {
		h.view.Flash(w, r, session.FlashError, "User not found.", "/users")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, msg, "/users")
}

func (h *UserHandler) renderForm(w http.ResponseWriter, r *http.Request, title string, data userFormData, values map[string]string) {
	roles, err := h.users.Roles(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	data.Roles = roles
	h.view.Render(w, r, http.StatusOK, "admin/users_form", Page{Title: title, Old: values, Data: data})
}

func editPath(id int64, action string) string {
	return "/users/" + strconv.FormatInt(id, 10) + "/" + action
}
