package handler

import (
	"net/http"
	"time"

	"github.com/cherop/pactpay/internal/context"
	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/response"
)

type ActivityResponseData struct {
	ID          string    `json:"id"`
	Entity      string    `json:"entity"`
	EntityID    string    `json:"entity_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ActivityHandler struct {
	ActivityRepo repository.ActivityRepository
	ErrHandler   *errHandler.ErrorHandler
}

func NewActivityHandler(handler *ActivityHandler) *ActivityHandler {
	return &ActivityHandler{
		ActivityRepo: handler.ActivityRepo,
		ErrHandler:   handler.ErrHandler,
	}
}

// HandleUserActivities returns the authenticated user's audit trail,
// newest first.
func (h *ActivityHandler) HandleUserActivities(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	activities, err := h.ActivityRepo.GetAllByUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*ActivityResponseData, 0, len(activities))
	for _, activity := range activities {
		data = append(data, &ActivityResponseData{
			ID:          activity.ID,
			Entity:      activity.Entity,
			EntityID:    activity.EntityId,
			Description: activity.Description,
			CreatedAt:   activity.CreatedAt,
		})
	}

	message := "Activities fetched successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
