package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
)

type userRequest struct {
	Username string `json:"username" form:"username"`
	Role     string `json:"role" form:"role"`
	Password string `json:"password" form:"password"`
}

// UserHandler manages accounts. Every route requires the admin role.
type UserHandler struct {
	svc *users.Service
}

func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Register(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	u := rg.Group("/users", guard...)
	u.GET("", h.List)
	u.POST("", h.Create)
	u.PUT("/:id", h.Update)
	u.DELETE("/:id", h.Delete)
}

func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *UserHandler) Create(c *gin.Context) {
	in, ok := bindUser(c, true)
	if !ok {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in.Username, in.RoleValue(), in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": p})
}

// Update renames or re-roles an account; a blank password keeps the old one.
func (h *UserHandler) Update(c *gin.Context) {
	in, ok := bindUser(c, false)
	if !ok {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), in.Username, in.RoleValue(), in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}

func (h *UserHandler) Delete(c *gin.Context) {
	p, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user " + p.Username + " deleted"})
}

func bindUser(c *gin.Context, requirePassword bool) (validation.UserInput, bool) {
	var req userRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c, []string{err.Error()})
		return validation.UserInput{}, false
	}
	res := validation.User(validation.UserInput{Username: req.Username, Role: req.Role, Password: req.Password}, requirePassword)
	if !res.Valid {
		invalidInput(c, res.Errors)
		return validation.UserInput{}, false
	}
	return res.Value, true
}
