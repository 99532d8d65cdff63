package api

import (
	"net/http"

	"minicms/internal/biz"
	"minicms/internal/router"
)

// DashboardHandler 后台首页
type DashboardHandler struct {
	view  *View
	stats *biz.StatsUsecase
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(view *View, stats *biz.StatsUsecase) *DashboardHandler {
	return &DashboardHandler{view: view, stats: stats}
}

func (h *DashboardHandler) RegisterRoutes(rt *router.Router) {
	rt.Get("/", h.index)
}

func (h *DashboardHandler) index(w http.ResponseWriter, r *http.Request, _ []string) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/dashboard", Page{Title: "Dashboard", Data: stats})
}
