package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockVerifier) VerifyAndRotateRefreshToken(ctx context.Context, token string) (*domain.TokenPair, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newAuthRouter(tokens *mockVerifier, users *mockUserReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AccessTokenCookie: "accessToken"}

	r := gin.New()
	r.Use(middleware.AuthMiddleware(cfg, tokens, users))
	handler := func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		id, _ := middleware.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "userName": user.UserName})
	}
	r.GET("/me", handler)
	r.OPTIONS("/me", handler)
	return r
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	tokens, users := new(mockVerifier), new(mockUserReader)
	tokens.On("VerifyAccessToken", mock.Anything, "from-cookie").Return("u1", nil).Once()
	users.On("GetUserByID", mock.Anything, "u1").Return(&domain.User{UserID: "u1", UserName: "ab"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	w := httptest.NewRecorder()
	newAuthRouter(tokens, users).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","userName":"ab"}`, w.Body.String())
	tokens.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	tokens, users := new(mockVerifier), new(mockUserReader)
	tokens.On("VerifyAccessToken", mock.Anything, "abc").Return("u1", nil).Once()
	users.On("GetUserByID", mock.Anything, "u1").Return(&domain.User{UserID: "u1", UserName: "ab"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer abc")
	w := httptest.NewRecorder()
	newAuthRouter(tokens, users).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		verify  error
		message string
	}{
		{"missing", "", nil, "Unauthorized request"},
		{"expired", "Bearer old", apperrors.ErrExpiredToken, "Access token has expired"},
		{"invalid", "Bearer junk", apperrors.ErrInvalidToken, "Invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, users := new(mockVerifier), new(mockUserReader)
			if tt.verify != nil {
				tokens.On("VerifyAccessToken", mock.Anything, mock.Anything).Return("", tt.verify).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter(tokens, users).ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthMiddleware_PreflightPassesThrough(t *testing.T) {
	tokens, users := new(mockVerifier), new(mockUserReader)

	w := httptest.NewRecorder()
	newAuthRouter(tokens, users).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/me", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	tokens.AssertNotCalled(t, "VerifyAccessToken", mock.Anything, mock.Anything)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slogDiscard()))
	r.GET("/", func(c *gin.Context) {
		assert.NotNil(t, middleware.GetLoggerFromCtx(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim, err := middleware.NewAuthRateLimiter(context.Background(), "1-M", "")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/login", middleware.RateLimit(lim), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestNewAuthRateLimiter_InvalidRate(t *testing.T) {
	_, err := middleware.NewAuthRateLimiter(context.Background(), "lots", "")
	assert.Error(t, err)
}

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, middleware.GetLoggerFromCtx(context.Background()))
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
