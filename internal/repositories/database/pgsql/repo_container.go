package pgsql

import (
	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewUserRepository returns the Postgres-backed credential store.
func NewUserRepository(dbPool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return newPgxUserRepository(dbPool)
}
