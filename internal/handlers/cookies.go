package handlers

import (
	"github.com/SscSPs/user_auth_backend/internal/core/domain"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// setAuthCookies writes both tokens as httpOnly cookies living as long as the tokens do.
func setAuthCookies(c *gin.Context, cfg *config.Config, pair *domain.TokenPair) {
	c.SetSameSite(cfg.CookieSameSite)
	c.SetCookie(cfg.AccessTokenCookie, pair.AccessToken, int(cfg.AccessTokenExpiry.Seconds()), "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(cfg.RefreshTokenCookie, pair.RefreshToken, int(cfg.RefreshTokenExpiry.Seconds()), "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

func clearAuthCookies(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(cfg.CookieSameSite)
	c.SetCookie(cfg.AccessTokenCookie, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(cfg.RefreshTokenCookie, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}
