package services

import (
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		User:  NewUserService(cfg, repos.UserRepo, repos.MediaStore),
		Token: NewTokenService(cfg, repos.UserRepo),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.UserSvcFacade  = (*userService)(nil)
	_ portssvc.TokenSvcFacade = (*tokenService)(nil)
)
