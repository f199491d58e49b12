package handlers

import (
	"net/http"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// userHandler holds dependencies for user-related handlers.
type userHandler struct {
	userService portssvc.UserSvcFacade
	uploads     *uploadStager
}

func newUserHandler(us portssvc.UserSvcFacade, cfg *config.Config) *userHandler {
	return &userHandler{userService: us, uploads: newUploadStager(cfg)}
}

// changePassword godoc
// @Summary Change password
// @Description Verifies the old password and stores the new one.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.ChangePasswordRequest true "Passwords"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/change-password [post]
func (h *userHandler) changePassword(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewBadRequestError("Invalid request body"))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

// currentUser godoc
// @Summary Get current user
// @Description Returns the authenticated user.
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse{data=domain.User}
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/current-user [get]
func (h *userHandler) currentUser(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}
	respond(c, http.StatusOK, user, "User fetched successfully")
}

// updateAccount godoc
// @Summary Update account details
// @Description Changes the full name and email of the authenticated user.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.UpdateAccountRequest true "Account details"
// @Success 200 {object} dto.APIResponse{data=domain.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/update-account [patch]
func (h *userHandler) updateAccount(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewBadRequestError("Invalid request body"))
		return
	}

	user, err := h.userService.UpdateAccountDetails(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Account details updated successfully")
}

// updateAvatar godoc
// @Summary Update avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} dto.APIResponse{data=domain.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/avatar [patch]
func (h *userHandler) updateAvatar(c *gin.Context) {
	h.updateImage(c, domain.ImageKindAvatar, "Avatar image updated successfully")
}

// updateCoverImage godoc
// @Summary Update cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} dto.APIResponse{data=domain.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/cover-image [patch]
func (h *userHandler) updateCoverImage(c *gin.Context) {
	h.updateImage(c, domain.ImageKindCover, "Cover image updated successfully")
}

func (h *userHandler) updateImage(c *gin.Context, kind domain.ImageKind, message string) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}

	path, cleanup, err := h.uploads.stage(c, string(kind))
	defer cleanup()
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.userService.UpdateProfileImage(c.Request.Context(), userID, kind, path)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, user, message)
}
