package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	userService  portssvc.UserSvcFacade
	tokenService portssvc.TokenSvcFacade
	uploads      *uploadStager
	cfg          *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:  us,
		tokenService: ts,
		uploads:      newUploadStager(cfg),
		cfg:          cfg,
	}
}

// Register godoc
// @Summary Register new user
// @Description Creates a new user account. Avatar is required, cover image is optional.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param userName formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} dto.APIResponse{data=domain.User}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, apperrors.NewBadRequestError("Invalid form data"))
		return
	}

	avatarPath, cleanupAvatar, err := h.uploads.stage(c, "avatar")
	defer cleanupAvatar()
	if err != nil {
		writeError(c, err)
		return
	}
	coverPath, cleanupCover, err := h.uploads.stage(c, "coverImage")
	defer cleanupCover()
	if err != nil {
		writeError(c, err)
		return
	}
	req.AvatarPath = avatarPath
	req.CoverImagePath = coverPath

	user, err := h.userService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login godoc
// @Summary User login
// @Description Authenticates a user by email or username and issues an access/refresh token pair.
// @Tags users
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewBadRequestError("Invalid request body"))
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	pair, err := h.tokenService.IssueTokenPair(c.Request.Context(), user.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	setAuthCookies(c, h.cfg, pair)
	respond(c, http.StatusOK, dto.LoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout godoc
// @Summary User logout
// @Description Revokes the stored refresh token and clears both token cookies.
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}

	if err := h.tokenService.RevokeRefreshToken(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	clearAuthCookies(c, h.cfg)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Exchanges the current refresh token (cookie or body) for a new token pair. Each refresh token works once.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} dto.APIResponse{data=dto.RefreshTokenResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	incoming := h.refreshTokenFromRequest(c)
	if incoming == "" {
		writeError(c, apperrors.NewUnauthorizedError("Unauthorized request"))
		return
	}

	pair, err := h.tokenService.VerifyAndRotateRefreshToken(c.Request.Context(), incoming)
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Warn("Refresh token rejected", slog.String("error", err.Error()))
		writeError(c, apperrors.NewAppError(http.StatusUnauthorized, refreshFailureMessage(err), err))
		return
	}

	setAuthCookies(c, h.cfg, pair)
	respond(c, http.StatusOK, dto.RefreshTokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *AuthHandler) refreshTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(h.cfg.RefreshTokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	var body dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.RefreshToken)
}

func refreshFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrExpiredToken):
		return "Refresh token has expired"
	case errors.Is(err, apperrors.ErrTokenReuseDetected):
		return "Refresh token is expired or used"
	default:
		return "Invalid refresh token"
	}
}
