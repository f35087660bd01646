package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"vitrin/db"
	"vitrin/middleware"
	"vitrin/models"
	"vitrin/rdx"
	"vitrin/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Handler issues credentials and tokens.
type Handler struct {
	Store    *db.Store
	Cache    *rdx.Cache
	Secret   []byte
	TokenTTL time.Duration
}

func NewHandler(store *db.Store, cache *rdx.Cache, secret []byte, ttl time.Duration) *Handler {
	return &Handler{Store: store, Cache: cache, Secret: secret, TokenTTL: ttl}
}

// GenerateToken signs an access token for the given user.
func (h *Handler) GenerateToken(user models.User) (string, error) {
	claims := &middleware.Claims{
		Username: user.Username,
		UserID:   user.ID.Hex(),
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := h.Store.Users.FindOne(ctx, bson.M{"username": input.Username}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "User already exists")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithServerError(w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Register hash error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Role:         models.RoleCustomer,
		CreatedAt:    time.Now(),
	}
	if _, err := h.Store.Users.InsertOne(ctx, user); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Registration successful"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := h.Store.Users.FindOne(ctx, bson.M{"username": input.Username}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.GenerateToken(user)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if _, err := h.Store.Users.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"last_login": time.Now()}},
	); err != nil {
		log.Printf("Login last_login update failed: %v", err)
	}

	if err := h.Cache.SetSession(ctx, user.ID.Hex(), token); err != nil {
		log.Printf("Redis session store failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Login successful",
		"token":   token,
		"userid":  user.ID.Hex(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Cache.DeleteSession(ctx, userID.Hex()); err != nil {
		log.Printf("Redis session remove failed: %v", err)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out"})
}

// RefreshToken re-signs the presented token's claims with a fresh expiry.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return h.Secret, nil
	})
	if err != nil || !token.Valid {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(h.TokenTTL))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	newToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.Secret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.Cache.SetSession(ctx, claims.UserID, newToken); err != nil {
		log.Printf("Redis session store failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": newToken})
}
