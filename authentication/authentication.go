// Package authentication signs users up and in, issues session tokens and guards
// the API with AuthMiddleware.
package authentication

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"spendora-backend/config"
	"spendora-backend/users"
)

type Handler struct {
	users     users.Store
	tokens    *Tokens
	revoker   Revoker
	logger    *logrus.Logger
	onSignout []func(userID, jti string)
}

func NewHandler(store users.Store, tokens *Tokens, revoker Revoker, logger *logrus.Logger) *Handler {
	return &Handler{
		users:   store,
		tokens:  tokens,
		revoker: revoker,
		logger:  logger,
	}
}

// OnSignout registers fn to run after a token has been revoked, so that work
// started under that session can be stopped.
func (h *Handler) OnSignout(fn func(userID, jti string)) {
	h.onSignout = append(h.onSignout, fn)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user users.User) {
	token, claims, err := h.tokens.Issue(user)
	if err != nil {
		config.LogError(h.logger, "authentication", "respondWithToken", "issue token", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}
	c.JSON(status, LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user.Response(),
	})
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var loginReq LoginRequest
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), loginReq.Email)
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	} else if err != nil {
		config.LogError(h.logger, "authentication", "HandleLogin", "find user", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !users.CheckPassword(user.PasswordHash, loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) HandleSignup(c *gin.Context) {
	var signupReq SignupRequest
	if err := c.ShouldBindJSON(&signupReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	hash, err := users.HashPassword(signupReq.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	name := strings.TrimSpace(signupReq.Name)
	if name == "" {
		name = strings.SplitN(signupReq.Email, "@", 2)[0]
	}
	user := users.User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         name,
		Role:         users.DefaultRole,
		Email:        users.NormalizeEmail(signupReq.Email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = h.users.Create(c.Request.Context(), user)
	if errors.Is(err, users.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	} else if err != nil {
		config.LogError(h.logger, "authentication", "HandleSignup", "create user", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// HandleSignout revokes the presented token for the rest of its lifetime and
// closes the live views opened with it.
func (h *Handler) HandleSignout(c *gin.Context) {
	userID := c.GetString("user_id")
	jti := c.GetString("jti")
	exp, _ := c.Get("exp")
	until, _ := exp.(time.Time)

	if err := h.revoker.Revoke(c.Request.Context(), jti, until); err != nil {
		config.LogError(h.logger, "authentication", "HandleSignout", "revoke token", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not sign out"})
		return
	}
	for _, fn := range h.onSignout {
		fn(userID, jti)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// EventSource cannot set headers, so the stream endpoint also takes ?token=.
	return c.Query("token")
}

func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := h.tokens.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		revoked, err := h.revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			config.LogError(h.logger, "authentication", "AuthMiddleware", "check revocation", claims.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify token"})
			c.Abort()
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrTokenRevoked.Error()})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("jti", claims.ID)
		c.Set("exp", claims.ExpiresAt.Time)
		c.Next()
	}
}
