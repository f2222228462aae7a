package middleware

import (
	"database/sql"
	"net/http"

	"merlin/internal/repository"
)

// AdminMiddleware gates routes on the admin flag
type AdminMiddleware struct {
	userRepo *repository.UserRepository
}

// NewAdminMiddleware creates a new admin middleware
func NewAdminMiddleware(db *sql.DB) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: repository.NewUserRepository(db),
	}
}

// RequireAdmin checks that the authenticated user is an active admin
func (m *AdminMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		user, err := m.userRepo.GetByID(userID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to get user")
			return
		}
		if user == nil || !user.IsActive || !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}
