// Package auth handles password hashing, session tokens and roles.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "pulse_session"

// Roles understood by the application. management and
// procurement_owner additionally unlock workflow bypass (see
// internal/workflow).
const (
	RoleAdmin            = "admin"
	RoleManagement       = "management"
	RoleProcurementOwner = "procurement_owner"
	RoleEngineering      = "engineering"
	RoleQA               = "qa"
	RoleProduction       = "production"
	RoleSales            = "sales"
	RoleReadonly         = "readonly"
)

// AllRoles lists every valid role.
var AllRoles = []string{
	RoleAdmin, RoleManagement, RoleProcurementOwner, RoleEngineering,
	RoleQA, RoleProduction, RoleSales, RoleReadonly,
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken returns a random 64-char hex session token.
func GenerateToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// SessionUser is the authenticated user attached to a request.
type SessionUser struct {
	ID          int
	Username    string
	DisplayName string
	Role        string
}

// UserFromRequest resolves the session cookie to a user, or nil when
// the session is missing, expired, or the account is deactivated.
func UserFromRequest(db *sql.DB, r *http.Request) *SessionUser {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	var u SessionUser
	var active int
	err = db.QueryRow(`SELECT u.id, u.username, u.display_name, u.role, u.active
		FROM sessions s JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP`, cookie.Value).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &active)
	if err != nil || active == 0 {
		return nil
	}
	return &u
}
