package beneficiaries

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/beneficiaries", h.List)
	r.GET("/beneficiaries/:id", h.Get)
	r.POST("/beneficiaries", h.Create)
	admin.DELETE("/beneficiaries/:id", h.Deactivate)
}

type dto struct {
	ID                  int64     `json:"id"`
	Type                string    `json:"type"`
	MemberID            *int64    `json:"member_id,omitempty"`
	ResponsibleMemberID *int64    `json:"responsible_member_id,omitempty"`
	Relationship        *string   `json:"relationship,omitempty"`
	Name                string    `json:"name"`
	Phone               *string   `json:"phone,omitempty"`
	Address             string    `json:"address"`
	Notes               *string   `json:"notes,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
}

func toDTO(b *Beneficiary) dto {
	d := dto{
		ID:        b.ID,
		Type:      b.Type,
		Name:      b.Name,
		Address:   b.Address,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
	if b.MemberID.Valid {
		v := b.MemberID.Int64
		d.MemberID = &v
	}
	if b.ResponsibleMemberID.Valid {
		v := b.ResponsibleMemberID.Int64
		d.ResponsibleMemberID = &v
	}
	if b.Relationship.Valid {
		v := b.Relationship.String
		d.Relationship = &v
	}
	if b.Phone.Valid {
		v := b.Phone.String
		d.Phone = &v
	}
	if b.Notes.Valid {
		v := b.Notes.String
		d.Notes = &v
	}
	return d
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	b, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, toDTO(b))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid id")))
		return
	}

	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, toDTO(b))
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.svc.List(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	out := make([]dto, 0, len(list))
	for i := range list {
		out = append(out, toDTO(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid id")))
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deactivated"})
}
