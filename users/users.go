package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"spendora-backend/config"
)

const maxPhotoSize = 5 << 20

type Handler struct {
	store  Store
	photos PhotoStorage
	logger *logrus.Logger
}

// NewHandler builds the profile handlers. photos may be nil, in which case photo
// uploads answer 503.
func NewHandler(store Store, photos PhotoStorage, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		photos: photos,
		logger: logger,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handler) currentUser(c *gin.Context) (User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found"})
		return User{}, false
	}
	user, err := h.store.FindByID(c.Request.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return User{}, false
	} else if err != nil {
		config.LogError(h.logger, "users", "currentUser", "find user", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return User{}, false
	}
	return user, true
}

// HandleMe returns the signed-in principal.
func (h *Handler) HandleMe(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user.Response())
}

func (h *Handler) HandleGetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user.ProfileResponse())
}

// HandleUpdateProfile merges the supplied fields into the stored profile.
func (h *Handler) HandleUpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	profile := req.apply(user.Profile())
	if strings.TrimSpace(profile.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}
	if err := h.store.UpdateProfile(c.Request.Context(), user.ID, profile); err != nil {
		config.LogError(h.logger, "users", "HandleUpdateProfile", "update profile", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update profile"})
		return
	}

	user.Name, user.Phone, user.Gender, user.DOB, user.Bio = profile.Name, profile.Phone, profile.Gender, profile.DOB, profile.Bio
	c.JSON(http.StatusOK, user.ProfileResponse())
}

func (h *Handler) HandleChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if !CheckPassword(user.PasswordHash, req.OldPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}
	if err := h.store.SetPasswordHash(c.Request.Context(), user.ID, hash); err != nil {
		config.LogError(h.logger, "users", "HandleChangePassword", "save password", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// HandleUploadPhoto stores the multipart "photo" file and records its URL.
func (h *Handler) HandleUploadPhoto(c *gin.Context) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrPhotoStorageDisabled.Error()})
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > maxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo must be 5MB or smaller"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo must be an image"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read photo"})
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	url, err := h.photos.Upload(ctx, user.ID, contentType, f)
	if err != nil {
		config.LogError(h.logger, "users", "HandleUploadPhoto", "upload photo", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not upload photo"})
		return
	}
	if err := h.store.SetPhoto(ctx, user.ID, url); err != nil {
		config.LogError(h.logger, "users", "HandleUploadPhoto", "save photo url", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": url})
}

func (h *Handler) HandleRemovePhoto(c *gin.Context) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrPhotoStorageDisabled.Error()})
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.photos.Remove(ctx, user.ID); err != nil {
		config.LogError(h.logger, "users", "HandleRemovePhoto", "remove photo", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not remove photo"})
		return
	}
	if err := h.store.SetPhoto(ctx, user.ID, ""); err != nil {
		config.LogError(h.logger, "users", "HandleRemovePhoto", "clear photo url", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update profile"})
		return
	}
	c.Status(http.StatusNoContent)
}
