package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ortobanco-backend/internal/platform/apierr"
)

type Handler struct{ store *Store }

func RegisterRoutes(r gin.IRoutes, store *Store) {
	h := &Handler{store: store}
	r.GET("/items/:code/history", h.ListByItem)
}

type entryDTO struct {
	ID         int64   `json:"id"`
	ItemID     int64   `json:"item_id"`
	PriorState *string `json:"prior_state,omitempty"`
	NewState   string  `json:"new_state"`
	Reason     string  `json:"reason"`
	Notes      *string `json:"notes,omitempty"`
	Actor      *string `json:"actor,omitempty"`
	ChangedAt  string  `json:"changed_at"`
}

func (h *Handler) ListByItem(c *gin.Context) {
	code := c.Param("code")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recs, err := h.store.ListByItemCode(c.Request.Context(), code, limit, offset)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.Body(err))
		return
	}

	out := make([]entryDTO, 0, len(recs))
	for _, r := range recs {
		d := entryDTO{
			ID:        r.ID,
			ItemID:    r.ItemID,
			NewState:  r.NewState,
			Reason:    r.Reason,
			ChangedAt: r.ChangedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if r.PriorState.Valid {
			v := r.PriorState.String
			d.PriorState = &v
		}
		if r.Notes.Valid {
			v := r.Notes.String
			d.Notes = &v
		}
		if r.Actor.Valid {
			v := r.Actor.String
			d.Actor = &v
		}
		out = append(out, d)
	}
	c.JSON(http.StatusOK, out)
}
