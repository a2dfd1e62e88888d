package items

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/items", h.List)
	r.GET("/items/:code", h.Get)

	admin.POST("/items", h.Create)
	admin.POST("/items/:code/decommission", h.Decommission)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	c.Header("Location", "/items/"+res.Code)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Query:  c.Query("q"),
		Limit:  parseIntDefault(c.Query("limit"), 100),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	if v := c.Query("state"); v != "" {
		if !IsValidState(v) {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("unknown state: "+v)))
			return
		}
		st := State(v)
		f.State = &st
	}
	if v := c.Query("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = &id
		}
	}
	if v := c.Query("deposit_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.DepositID = &id
		}
	}

	res, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Decommission(c *gin.Context) {
	var req DecommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.Decommission(c.Request.Context(), c.Param("code"), req, auth.ActorFrom(c, ""))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
