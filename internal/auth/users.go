package auth

import (
	"context"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt only reads the first 72 bytes and refuses longer input
	maxPasswordBytes = 72
)

// dummyHash is compared against when the username does not exist so a miss
// costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateUser validates and stores a new account with a bcrypt hash.
func CreateUser(ctx context.Context, st *store.Store, username, password string, role models.UserRole) (*models.User, error) {
	username = NormalizeUsername(username)
	if role == "" {
		role = models.RoleDispatcher
	}

	switch {
	case len(username) < 3 || len(username) > 50:
		return nil, apperr.Validation("username", "username must be 3 to 50 characters")
	case strings.ContainsAny(username, " \t"):
		return nil, apperr.Validation("username", "username cannot contain spaces")
	case len(password) < minPasswordLen:
		return nil, apperr.Validation("password", "password must be at least 8 characters")
	case len(password) > maxPasswordBytes:
		return nil, apperr.Validation("password", "password must be at most 72 bytes")
	case !role.Valid():
		return nil, apperr.Validation("role", "role must be admin, dispatcher or viewer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}

	u := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := st.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/password pair in constant time with respect
// to whether the user exists.
func Authenticate(ctx context.Context, st *store.Store, username, password string) (*models.User, error) {
	u, err := st.GetUserByUsername(ctx, NormalizeUsername(username))
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	hash := dummyHash
	if u != nil {
		hash = []byte(u.PasswordHash)
	}
	if cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password)); cmpErr != nil || u == nil {
		return nil, apperr.Unauthenticated("invalid username or password")
	}
	return u, nil
}
