package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"vitrin/db"
	"vitrin/models"
	"vitrin/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims carried in every access token.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const (
	userIDKey contextKey = "userId"
	roleKey   contextKey = "role"
)

// Auth verifies bearer tokens and gates admin routes. The secret and store
// are injected at construction; there is no package-level state.
type Auth struct {
	Secret []byte
	Store  *db.Store
}

func NewAuth(secret []byte, store *db.Store) *Auth {
	return &Auth{Secret: secret, Store: store}
}

// ParseToken validates a raw token string and returns its claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// Authenticate verifies the Authorization header, confirms the token's user
// still exists, and attaches the user id and role to the request context.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := a.Store.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
			return
		}

		reqCtx := context.WithValue(r.Context(), userIDKey, user.ID)
		reqCtx = context.WithValue(reqCtx, roleKey, user.Role)
		next(w, r.WithContext(reqCtx), ps)
	}
}

// RequireAdmin rejects non-admin callers. Must be chained after Authenticate.
func (a *Auth) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if RoleFromContext(r.Context()) != models.RoleAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, ps)
	}
}

// UserIDFromContext returns the authenticated user's id, if any.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(userIDKey).(primitive.ObjectID)
	return id, ok
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// WithUser attaches an identity to a context the way Authenticate does.
// Used by tests and internal callers.
func WithUser(ctx context.Context, userID primitive.ObjectID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}
