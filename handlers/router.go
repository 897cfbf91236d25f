package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/catalog"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/moderation"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/middleware"
)

// API bundles the services exposed under /api.
type API struct {
	Config   *config.Config
	Catalog  *catalog.Service
	Pipeline *moderation.Pipeline
	Users    *users.Service
	Sessions *sessions.Service
	Verifier middleware.Verifier
	Assets   storage.Storage
	// Limit builds the limiter for a scope; nil disables rate limiting.
	Limit func(scope string) gin.HandlerFunc
}

func (a *API) limit(scope string) gin.HandlerFunc {
	if a.Limit == nil {
		return nil
	}
	return a.Limit(scope)
}

// Register mounts every /api route plus asset serving on r.
func (a *API) Register(r *gin.Engine) {
	auth := middleware.AuthMiddleware(a.Verifier, a.Sessions)
	editor := []gin.HandlerFunc{auth, middleware.RequireRole(models.RoleEditor)}
	admin := []gin.HandlerFunc{auth, middleware.RequireRole(models.RoleAdmin)}

	api := r.Group("/api")
	NewAuthHandler(a.Config, a.Users, a.Sessions).Register(api, auth, a.limit("login"))
	NewUserHandler(a.Users).Register(api, admin...)
	NewCatalogHandler(a.Catalog).Register(api, editor...)
	up := NewUploader(a.Assets, a.Config.Upload.MaxFileSize, a.Config.Upload.MaxFiles)
	NewEntryHandler(a.Pipeline, a.Catalog, up).Register(api, a.limit("submit"), editor...)

	RegisterAssets(r, a.Assets, a.Config.Storage.UploadDir)
}
