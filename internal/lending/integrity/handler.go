package integrity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
	"ortobanco-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// system-health screen
	r.GET("/integrity/audit", h.Audit)
	// admin "fix inconsistencies" action
	admin.POST("/integrity/reconcile", h.Reconcile)
}

func (h *Handler) Audit(c *gin.Context) {
	report, err := h.svc.Audit(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Reconcile(c *gin.Context) {
	summary, err := h.svc.Reconcile(c.Request.Context(), auth.ActorFrom(c, ""))
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}
