package api

import (
	"net/http"

	"minicms/internal/biz"
	"minicms/internal/router"
)

// RoleHandler lists the available roles.
type RoleHandler struct {
	view  *View
	users *biz.UserUsecase
}

// NewRoleHandler 创建 RoleHandler
func NewRoleHandler(view *View, users *biz.UserUsecase) *RoleHandler {
	return &RoleHandler{view: view, users: users}
}

func (h *RoleHandler) RegisterRoutes(rt *router.Router, admin router.Guard) {
	rt.Get("/roles", h.index, admin)
}

func (h *RoleHandler) index(w http.ResponseWriter, r *http.Request, _ []string) {
	roles, err := h.users.Roles(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/roles", Page{Title: "Roles", Data: roles})
}
