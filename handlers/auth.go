package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/tokens"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/middleware"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s}
}

// Register routes under /auth. limit may be nil.
func (h *AuthHandler) Register(rg *gin.RouterGroup, auth, limit gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", chain(limit, h.Login)...)
	a.POST("/logout", auth, h.Logout)
	a.GET("/me", auth, h.Me)
}

// Login checks the credentials, opens a session and returns an access token bound to it.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c, []string{"username and password are required"})
		return
	}
	res := validation.Credentials(validation.CredentialsInput{Username: req.Username, Password: req.Password})
	if !res.Valid {
		invalidInput(c, res.Errors)
		return
	}
	p, err := h.usersSvc.Authenticate(c.Request.Context(), res.Value.Username, res.Value.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.sessionsSvc.CreateSession(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, sess, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("issue access token for %s: %v", p.Username, err)
		_ = h.sessionsSvc.Delete(c.Request.Context(), sess.ID)
		apiError(c, http.StatusInternalServerError, "failed to create access token", nil)
		return
	}
	logger.Infof("login: %s (%s)", p.Username, p.Role)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
		"user":        p,
		"expiresIn":   int(h.sessionsSvc.IdleTimeout().Seconds()),
	})
}

// Logout ends the caller's session; its tokens stop working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessionsSvc.Delete(c.Request.Context(), c.GetString(middleware.SessionKey)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, gin.H{"user": p})
}

// chain drops nil handlers.
func chain(hs ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
