package handler

import (
	"github.com/labstack/echo/v4"

	"tradehub/internal/usecase"
	"tradehub/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, actor)
}

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"dive,oneof=middleman admin"`
}

func (h *UserHandler) UpdateUserRoles(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateRolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.SetRoles(c.Request().Context(), actor, c.Param("id"), req.Roles)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}
