package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"geostick/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	// record API consumed by the submission pipeline and the mobile client
	r.GET("/users/:auth_id", getUserHandler)
	r.POST("/users/profiles", updateProfileHandler)
	r.GET("/communities", listCommunitiesHandler)
	r.GET("/communities/:id", getCommunityHandler)
	r.POST("/communities", createCommunityHandler)
	r.POST("/communities/:id/join", joinCommunityHandler)
	r.DELETE("/communities/:id/quit", quitCommunityHandler)
	r.GET("/communities/:id/stickers", listCommunityStickersHandler)
	r.POST("/stickers", createStickerHandler)
	r.GET("/stickers/:id", getStickerHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.DELETE("/stickers/:id", deleteStickerHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		authID, _ := claims["auth_id"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		c.Set("auth_id", authID)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	authVal, _ := c.Get("auth_id")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal, "auth_id": authVal})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := RegisterUser(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully", "auth_id": user.AuthID})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"auth_id":  user.AuthID,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	now := time.Now()
	db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("last_login", &now)
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken, "auth_id": user.AuthID})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	// generate random 32-byte token (hex)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	// hash for storage
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"auth_id":  user.AuthID,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

type profileResponse struct {
	AuthID        string     `json:"auth_id"`
	Username      string     `json:"username"`
	AvatarURL     string     `json:"avatar_url"`
	Bio           string     `json:"bio"`
	CommunityID   *string    `json:"community_id"`
	IsAdmin       bool       `json:"is_admin"`
	TotalStickers int        `json:"total_stickers"`
	Score         int        `json:"score"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login"`
}

// getUserHandler returns the profile for an auth id, including the optional
// community_id clients use to default a submission's target community.
func getUserHandler(c *gin.Context) {
	authID := c.Param("auth_id")
	var user models.User
	if err := db.Where("auth_id = ?", authID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profileResponse{
		AuthID:        user.AuthID,
		Username:      user.Username,
		AvatarURL:     profile.AvatarURL,
		Bio:           profile.Bio,
		CommunityID:   profile.CommunityID,
		IsAdmin:       profile.IsAdmin,
		TotalStickers: profile.TotalStickers,
		Score:         profile.Score,
		CreatedAt:     profile.CreatedAt,
		LastLogin:     profile.LastLogin,
	})
}

// updateProfileHandler fills in the public profile fields for an auth id.
func updateProfileHandler(c *gin.Context) {
	var req struct {
		AuthID    string `json:"auth_id" binding:"required"`
		AvatarURL string `json:"avatar_url"`
		Bio       string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user models.User
	if err := db.Where("auth_id = ?", req.AuthID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	updates := map[string]any{"avatar_url": req.AvatarURL, "bio": req.Bio}
	if err := db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func listCommunitiesHandler(c *gin.Context) {
	var communities []models.Community
	if err := db.Order("created_at desc").Limit(200).Find(&communities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, communities)
}

func getCommunityHandler(c *gin.Context) {
	var community models.Community
	if err := db.Where("id = ?", c.Param("id")).First(&community).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
		return
	}
	c.JSON(http.StatusOK, community)
}

// createCommunityHandler creates a community, a membership row for the
// creator, and flips the creator's profile to the new community as admin.
func createCommunityHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		AdminID     string `json:"admin_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var admin models.User
	if err := db.Where("auth_id = ?", req.AdminID).First(&admin).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin user not found"})
		return
	}
	community := models.Community{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		AdminID:     admin.AuthID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		membership := models.Membership{AuthID: admin.AuthID, CommunityID: community.ID, JoinedAt: time.Now()}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", admin.ID).
			Updates(map[string]any{"community_id": community.ID, "is_admin": true}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create community"})
		return
	}
	c.JSON(http.StatusOK, community)
}

func joinCommunityHandler(c *gin.Context) {
	communityID := c.Param("id")
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var community models.Community
	if err := db.Where("id = ?", communityID).First(&community).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
		return
	}
	var user models.User
	if err := db.Where("auth_id = ?", req.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}
	membership := models.Membership{AuthID: user.AuthID, CommunityID: community.ID, JoinedAt: time.Now()}
	if err := db.Create(&membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "already a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
		return
	}
	db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("community_id", community.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// quitCommunityHandler removes the membership and clears the profile's
// community_id.
func quitCommunityHandler(c *gin.Context) {
	communityID := c.Param("id")
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	res := db.Where("community_id = ? AND auth_id = ?", communityID, userID).Delete(&models.Membership{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quit failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "membership not found"})
		return
	}
	var user models.User
	if err := db.Where("auth_id = ?", userID).First(&user).Error; err == nil {
		db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("community_id", nil)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func listCommunityStickersHandler(c *gin.Context) {
	var stickers []models.Sticker
	if err := db.Where("community_id = ?", c.Param("id")).Order("created_at desc").Limit(500).Find(&stickers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, stickers)
}

// createStickerHandler is the create endpoint the submission pipeline posts
// to. 4xx responses are terminal for the client; only 5xx is retry-eligible.
func createStickerHandler(c *gin.Context) {
	var req struct {
		CommunityID string  `json:"community_id" binding:"required"`
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		ImageURL    string  `json:"image_url" binding:"required"`
		Lat         float64 `json:"lat"`
		Long        float64 `json:"long"`
		AuthID      string  `json:"auth_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	var community models.Community
	if err := db.Where("id = ?", req.CommunityID).First(&community).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "community not found"})
		return
	}
	var author models.User
	if err := db.Where("auth_id = ?", req.AuthID).First(&author).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "author not found"})
		return
	}
	sticker := models.Sticker{
		ID:          uuid.NewString(),
		CommunityID: community.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    req.ImageURL,
		Lat:         req.Lat,
		Long:        req.Long,
		AuthID:      author.AuthID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sticker).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", author.ID).
			Updates(map[string]any{
				"total_stickers": gorm.Expr("total_stickers + 1"),
				"score":          gorm.Expr("score + 1"),
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": sticker.ID})
}

func getStickerHandler(c *gin.Context) {
	var sticker models.Sticker
	if err := db.Where("id = ?", c.Param("id")).First(&sticker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sticker not found"})
		return
	}
	c.JSON(http.StatusOK, sticker)
}

// deleteStickerHandler removes a sticker if the caller owns it or is an
// administrator. The uploaded object is left in storage (known limitation).
func deleteStickerHandler(c *gin.Context) {
	role, _ := c.Get("role")
	authVal, _ := c.Get("auth_id")
	authID, _ := authVal.(string)
	var sticker models.Sticker
	if err := db.Where("id = ?", c.Param("id")).First(&sticker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sticker not found"})
		return
	}
	if role != "administrator" && sticker.AuthID != authID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := db.Delete(&sticker).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sticker deleted successfully"})
}
