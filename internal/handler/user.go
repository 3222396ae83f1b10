package handler

import (
	"net/http"
	"time"

	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/response"
)

type UserResponseData struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type UserHandler struct {
	UserRepo   repository.UserRepository
	ErrHandler *errHandler.ErrorHandler
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		UserRepo:   handler.UserRepo,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *UserHandler) HandleUserDetails(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	user, found, err := h.UserRepo.GetOne(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	message := "User details fetched successfully"

	data := &UserResponseData{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
