package http

import (
	"net/http"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type createUserRequest struct {
	Email string  `json:"email" validate:"required,email"`
	Name  *string `json:"name" validate:"omitempty,max=200"`
}

type createUserResponse struct {
	Status string       `json:"status"`
	User   *domain.User `json:"user"`
}

// CreateUser godoc
// @Summary      Registers a user
// @Description  Creates the user, or reports that the email is already registered.
// @Tags         users
// @Accept       json
// @Success      201
// @Success      200
// @Failure      400
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, created, err := h.service.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, createUserResponse{Status: "exists", User: user})
		return
	}
	writeJSON(w, http.StatusCreated, createUserResponse{Status: "created", User: user})
}
