package api

import (
	"errors"
	"net/http"
	"strconv"

	"minicms/internal/biz"
	"minicms/internal/router"
	"minicms/internal/session"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the file itself.
const multipartOverhead = 1 << 20

// MediaHandler 媒体管理，仅管理员可用
type MediaHandler struct {
	view    *View
	media   *biz.MediaUsecase
	maxSize int64
}

// NewMediaHandler 创建 MediaHandler
func NewMediaHandler(view *View, media *biz.MediaUsecase, maxSize int64) *MediaHandler {
	return &MediaHandler{view: view, media: media, maxSize: maxSize}
}

func (h *MediaHandler) RegisterRoutes(rt *router.Router, admin router.Guard) {
	rt.Get("/media", h.index, admin)
	rt.Get("/media/upload", h.uploadForm, admin)
	rt.Post("/media/store", h.store, admin)
	rt.Post("/media/{id}/delete", h.destroy, admin)
}

func (h *MediaHandler) index(w http.ResponseWriter, r *http.Request, _ []string) {
	media, err := h.media.List(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/media_index", Page{Title: "Media", Data: media})
}

func (h *MediaHandler) uploadForm(w http.ResponseWriter, r *http.Request, _ []string) {
	h.view.Render(w, r, http.StatusOK, "admin/media_upload", Page{Title: "Upload image", Data: h.maxSize})
}

func (h *MediaHandler) store(w http.ResponseWriter, r *http.Request, _ []string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.view.FormError(w, r, biz.ValidationErrors{"File is too large."}, nil, "/media/upload")
			return
		}
		h.view.FormError(w, r, biz.ValidationErrors{"Choose a file to upload."}, nil, "/media/upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	alt := r.PostForm.Get("alt")
	up := biz.MediaUpload{Alt: alt}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		up.OriginalName = header.Filename
		up.Size = header.Size
		up.Content = file
	case !errors.Is(err, http.ErrMissingFile):
		h.view.ServerError(w, r, err)
		return
	}

	if _, err := h.media.Upload(r.Context(), up); err != nil {
		h.view.FormError(w, r, err, map[string]string{"alt": alt}, "/media/upload")
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Image uploaded.", "/media")
}

func (h *MediaHandler) destroy(w http.ResponseWriter, r *http.Request, params []string) {
	id, err := strconv.ParseInt(params[0], 10, 64)
	if err != nil {
		h.view.NotFound(w, r)
		return
	}
	err = h.media.Delete(r.Context(), id)
	if errors.Is(err, biz.ErrMediaNotFound) {
		h.view.Flash(w, r, session.FlashError, "Image not found.", "/media")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Flash(w, r, session.FlashSuccess, "Image deleted.", "/media")
}
