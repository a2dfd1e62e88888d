package loans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans", h.OpenLoan)
	r.POST("/loans/:ulid/close", h.CloseLoan)
	// GET /loans is the active-loan report the dashboard renders
	r.GET("/loans", h.ListActive)
	r.GET("/loans/:ulid", h.Get)
	r.GET("/items/:code/loans", h.ListByItem)
}

func (h *Handler) OpenLoan(c *gin.Context) {
	var req OpenLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.OpenLoan(c.Request.Context(), req, auth.ActorFrom(c, ""))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	c.Header("Location", "/loans/"+res.ULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) CloseLoan(c *gin.Context) {
	var req CloseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	res, err := h.svc.CloseLoan(c.Request.Context(), c.Param("ulid"), req, auth.ActorFrom(c, ""))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("ulid"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListActive(c *gin.Context) {
	res, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByItem(c *gin.Context) {
	res, err := h.svc.ListByItem(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
