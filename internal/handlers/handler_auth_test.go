package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/SscSPs/user_auth_backend/internal/apperrors"
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/dto"
	"github.com/SscSPs/user_auth_backend/internal/handlers"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type AuthHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	cfg              *config.Config
	mockUserService  *MockUserService
	mockTokenService *MockTokenService
	user             *domain.User
	pair             *domain.TokenPair
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.cfg = newTestConfig(suite.T())

	suite.mockUserService = new(MockUserService)
	suite.mockTokenService = new(MockTokenService)

	handlers.RegisterRoutes(suite.router, suite.cfg, &portssvc.ServiceContainer{
		User:  suite.mockUserService,
		Token: suite.mockTokenService,
	}, nil, stubStore{})

	suite.user = &domain.User{UserID: "user-1", UserName: "ab", Email: "a@b.com", FullName: "A B", AvatarURL: "http://media/a.png"}
	suite.pair = &domain.TokenPair{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshExpiresAt: time.Now().Add(240 * time.Hour),
	}
}

func (suite *AuthHandlerTestSuite) TearDownTest() {
	suite.mockUserService.AssertExpectations(suite.T())
	suite.mockTokenService.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) authenticate(token string) {
	suite.mockTokenService.On("VerifyAccessToken", mock.Anything, token).Return(suite.user.UserID, nil).Once()
	suite.mockUserService.On("GetUserByID", mock.Anything, suite.user.UserID).Return(suite.user, nil).Once()
}

// --- Test Cases ---

func (suite *AuthHandlerTestSuite) TestRegister_StagesFilesAndRemovesThem() {
	var stagedAvatar string
	suite.mockUserService.On("RegisterUser", mock.Anything, mock.MatchedBy(func(r dto.RegisterUserRequest) bool {
		return r.UserName == "ab" && r.AvatarPath != "" && r.CoverImagePath == ""
	})).Run(func(args mock.Arguments) {
		req := args.Get(1).(dto.RegisterUserRequest)
		stagedAvatar = req.AvatarPath
		_, err := os.Stat(stagedAvatar)
		suite.NoError(err, "avatar must be staged before the service runs")
	}).Return(suite.user, nil).Once()

	req := newMultipartRequest(suite.T(), http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "A B", "userName": "ab", "email": "a@b.com", "password": "secret1"},
		map[string][]byte{"avatar": pngHeader})
	w := suite.serve(req)

	suite.Equal(http.StatusCreated, w.Code)
	env := decodeEnvelope(suite.T(), w)
	suite.True(env.Success)
	suite.Equal("User registered successfully", env.Message)

	_, err := os.Stat(stagedAvatar)
	suite.True(os.IsNotExist(err), "temp upload must be removed")
}

func (suite *AuthHandlerTestSuite) TestRegister_ServiceErrorKeepsMessageAndDetails() {
	suite.mockUserService.On("RegisterUser", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewBadRequestError("All fields are required", "email is required")).Once()

	req := newMultipartRequest(suite.T(), http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "A B", "userName": "ab", "password": "secret1"}, nil)
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	env := decodeEnvelope(suite.T(), w)
	suite.False(env.Success)
	suite.Equal("All fields are required", env.Message)
	suite.Equal([]string{"email is required"}, env.Errors)
}

func (suite *AuthHandlerTestSuite) TestLogin_SetsCookiesAndReturnsTokens() {
	suite.mockUserService.On("AuthenticateUser", mock.Anything, dto.LoginRequest{Email: "a@b.com", Password: "secret1"}).
		Return(suite.user, nil).Once()
	suite.mockTokenService.On("IssueTokenPair", mock.Anything, suite.user.UserID).Return(suite.pair, nil).Once()

	w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "a@b.com", "password": "secret1"}))

	suite.Equal(http.StatusOK, w.Code)
	env := decodeEnvelope(suite.T(), w)
	var body dto.LoginResponse
	suite.Require().NoError(json.Unmarshal(env.Data, &body))
	suite.Equal("access-1", body.AccessToken)
	suite.Equal("refresh-1", body.RefreshToken)
	suite.Equal("ab", body.User.UserName)

	access := findCookie(w, "accessToken")
	suite.Require().NotNil(access)
	suite.Equal("access-1", access.Value)
	suite.True(access.HttpOnly)
	suite.True(access.Secure)
	suite.Equal(http.SameSiteNoneMode, access.SameSite)
	suite.Equal(int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := findCookie(w, "refreshToken")
	suite.Require().NotNil(refresh)
	suite.Equal("refresh-1", refresh.Value)
	suite.Equal(int((240 * time.Hour).Seconds()), refresh.MaxAge)
}

func (suite *AuthHandlerTestSuite) TestLogin_Failures() {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"wrong password", apperrors.NewUnauthorizedError("Invalid user credentials"), http.StatusUnauthorized, "Invalid user credentials"},
		{"unknown user", apperrors.NewNotFoundError("User does not exist"), http.StatusNotFound, "User does not exist"},
		{"missing identifier", apperrors.NewBadRequestError("Username or email is required"), http.StatusBadRequest, "Username or email is required"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockUserService.On("AuthenticateUser", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/login",
				map[string]string{"userName": "ab", "password": "nope"}))

			suite.Equal(tt.status, w.Code)
			suite.Equal(tt.message, decodeEnvelope(suite.T(), w).Message)
			suite.Nil(findCookie(w, "accessToken"))
		})
	}
}

func (suite *AuthHandlerTestSuite) TestLogin_MalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Invalid request body", decodeEnvelope(suite.T(), w).Message)
}

func (suite *AuthHandlerTestSuite) TestLogin_IssueFailureHidesInternals() {
	suite.mockUserService.On("AuthenticateUser", mock.Anything, mock.Anything).Return(suite.user, nil).Once()
	suite.mockTokenService.On("IssueTokenPair", mock.Anything, suite.user.UserID).
		Return(nil, errors.Join(apperrors.ErrPersistence, errors.New("connection reset"))).Once()

	w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/login",
		map[string]string{"userName": "ab", "password": "secret1"}))

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Internal server error", decodeEnvelope(suite.T(), w).Message)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *AuthHandlerTestSuite) TestRefresh_PrefersCookie() {
	suite.mockTokenService.On("VerifyAndRotateRefreshToken", mock.Anything, "cookie-token").Return(suite.pair, nil).Once()

	req := newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": "body-token"})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "cookie-token"})
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.RefreshTokenResponse
	suite.Require().NoError(json.Unmarshal(decodeEnvelope(suite.T(), w).Data, &body))
	suite.Equal("refresh-1", body.RefreshToken)
	suite.Equal("refresh-1", findCookie(w, "refreshToken").Value)
}

func (suite *AuthHandlerTestSuite) TestRefresh_FallsBackToBody() {
	suite.mockTokenService.On("VerifyAndRotateRefreshToken", mock.Anything, "body-token").Return(suite.pair, nil).Once()

	w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": "body-token"}))

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRefresh_MissingToken() {
	w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/refresh-token", nil))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Unauthorized request", decodeEnvelope(suite.T(), w).Message)
	suite.mockTokenService.AssertNotCalled(suite.T(), "VerifyAndRotateRefreshToken", mock.Anything, mock.Anything)
}

func (suite *AuthHandlerTestSuite) TestRefresh_FailuresAreUnauthorized() {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"reused", apperrors.ErrTokenReuseDetected, "Refresh token is expired or used"},
		{"expired", apperrors.ErrExpiredToken, "Refresh token has expired"},
		{"invalid", apperrors.ErrInvalidToken, "Invalid refresh token"},
		{"store failure", apperrors.ErrPersistence, "Invalid refresh token"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockTokenService.On("VerifyAndRotateRefreshToken", mock.Anything, "stale").Return(nil, tt.err).Once()

			w := suite.serve(newJSONRequest(suite.T(), http.MethodPost, "/api/v1/users/refresh-token",
				map[string]string{"refreshToken": "stale"}))

			suite.Equal(http.StatusUnauthorized, w.Code)
			suite.Equal(tt.message, decodeEnvelope(suite.T(), w).Message)
		})
	}
}

func (suite *AuthHandlerTestSuite) TestLogout_RevokesAndClearsCookies() {
	suite.authenticate("access-1")
	suite.mockTokenService.On("RevokeRefreshToken", mock.Anything, suite.user.UserID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("{}", string(decodeEnvelope(suite.T(), w).Data))
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := findCookie(w, name)
		suite.Require().NotNil(cookie, name)
		suite.Empty(cookie.Value)
		suite.Less(cookie.MaxAge, 0)
	}
}

func (suite *AuthHandlerTestSuite) TestLogout_RequiresAuthentication() {
	w := suite.serve(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil))

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTokenService.AssertNotCalled(suite.T(), "RevokeRefreshToken", mock.Anything, mock.Anything)
}

func (suite *AuthHandlerTestSuite) TestHealth() {
	w := suite.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusOK, w.Code)

	router := gin.New()
	handlers.RegisterRoutes(router, suite.cfg, &portssvc.ServiceContainer{
		User:  suite.mockUserService,
		Token: suite.mockTokenService,
	}, nil, stubStore{err: errors.New("db down")})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func TestLogin_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := newTestConfig(t)
	lim, err := middleware.NewAuthRateLimiter(context.Background(), "2-M", "")
	if err != nil {
		t.Fatal(err)
	}

	userSvc := new(MockUserService)
	userSvc.On("AuthenticateUser", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewUnauthorizedError("Invalid user credentials"))

	router := gin.New()
	handlers.RegisterRoutes(router, cfg, &portssvc.ServiceContainer{User: userSvc, Token: new(MockTokenService)}, lim, stubStore{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/api/v1/users/login",
			map[string]string{"userName": "ab", "password": "nope"}))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusUnauthorized || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}
