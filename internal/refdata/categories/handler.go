package categories

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
)

type Handler struct{ store *Store }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, store *Store) {
	h := &Handler{store: store}
	r.GET("/categories", h.List)
	admin.POST("/categories", h.Create)
}

type categoryDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type createRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	out := make([]categoryDTO, 0, len(list))
	for _, cat := range list {
		d := categoryDTO{ID: cat.ID, Name: cat.Name}
		if cat.Description.Valid {
			v := cat.Description.String
			d.Description = &v
		}
		out = append(out, d)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	cat := &Category{Name: req.Name, Active: true}
	if req.Description != nil && *req.Description != "" {
		cat.Description = sql.NullString{String: *req.Description, Valid: true}
	}

	if err := h.store.Insert(c.Request.Context(), cat); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	d := categoryDTO{ID: cat.ID, Name: cat.Name}
	if cat.Description.Valid {
		v := cat.Description.String
		d.Description = &v
	}
	c.JSON(http.StatusCreated, d)
}
