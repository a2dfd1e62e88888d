package deposits

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
)

type Handler struct{ store *Store }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, store *Store) {
	h := &Handler{store: store}

	r.GET("/deposits", h.List)
	r.GET("/deposits/:id", h.Get)
	admin.POST("/deposits", h.Create)
}

type depositDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     *string   `json:"address,omitempty"`
	Responsible *string   `json:"responsible,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toDTO(d *Deposit) depositDTO {
	out := depositDTO{ID: d.ID, Name: d.Name, Active: d.Active, CreatedAt: d.CreatedAt}
	if d.Address.Valid {
		v := d.Address.String
		out.Address = &v
	}
	if d.Responsible.Valid {
		v := d.Responsible.String
		out.Responsible = &v
	}
	if d.Phone.Valid {
		v := d.Phone.String
		out.Phone = &v
	}
	if d.Email.Valid {
		v := d.Email.String
		out.Email = &v
	}
	return out
}

type createRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     *string `json:"address,omitempty"`
	Responsible *string `json:"responsible,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid json or missing required fields")))
		return
	}

	d := &Deposit{
		Name:        req.Name,
		Address:     toNullString(req.Address),
		Responsible: toNullString(req.Responsible),
		Phone:       toNullString(req.Phone),
		Email:       toNullString(req.Email),
		Active:      true,
	}
	if err := h.store.Insert(c.Request.Context(), d); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusCreated, toDTO(d))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.Invalid("invalid id")))
		return
	}

	d, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}
	c.JSON(http.StatusOK, toDTO(d))
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	out := make([]depositDTO, 0, len(list))
	for i := range list {
		out = append(out, toDTO(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func toNullString(p *string) (ns sql.NullString) {
	if p != nil && *p != "" {
		ns.String = *p
		ns.Valid = true
	}
	return
}
