package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/catalog"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
)

// CatalogHandler serves the published cars and the brand and category lists.
type CatalogHandler struct {
	svc *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Register mounts the read routes publicly and the list mutations behind guard.
func (h *CatalogHandler) Register(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	rg.GET("/cars", h.ListCars)
	rg.GET("/cars/:id", h.GetCar)
	rg.GET("/brands", h.Brands)
	rg.GET("/categories", h.Categories)

	w := rg.Group("", guard...)
	w.POST("/brands", h.AddBrand)
	w.DELETE("/brands/:name", h.DeleteBrand)
	w.POST("/categories", h.AddCategory)
	w.PUT("/categories/:name", h.UpdateCategory)
	w.DELETE("/categories/:name", h.DeleteCategory)
}

// ListCars filters by brand, bodyType, q, yearFrom and yearTo. Unparsable
// year bounds are ignored.
func (h *CatalogHandler) ListCars(c *gin.Context) {
	f := catalog.Filter{
		Brand:    c.Query("brand"),
		BodyType: c.Query("bodyType"),
		Query:    c.Query("q"),
		YearFrom: queryInt(c, "yearFrom"),
		YearTo:   queryInt(c, "yearTo"),
	}
	cars, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cars": cars})
}

func queryInt(c *gin.Context, key string) *int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func (h *CatalogHandler) GetCar(c *gin.Context) {
	car, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

func (h *CatalogHandler) Brands(c *gin.Context) {
	brands, err := h.svc.Brands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

func (h *CatalogHandler) AddBrand(c *gin.Context) {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	_ = c.ShouldBind(&req)
	res := validation.Brand(validation.BrandInput{Name: req.Name})
	if !res.Valid {
		invalidInput(c, res.Errors)
		return
	}
	if _, err := h.svc.AddBrand(c.Request.Context(), res.Value.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"brand": res.Value.Name})
}

func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	if err := h.svc.DeleteBrand(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "brand deleted"})
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

type categoryRequest struct {
	Name string `json:"name" form:"name"`
	Icon string `json:"icon" form:"icon"`
}

func (h *CatalogHandler) AddCategory(c *gin.Context) {
	var req categoryRequest
	_ = c.ShouldBind(&req)
	res := validation.Category(validation.CategoryInput{Name: req.Name, Icon: req.Icon})
	if !res.Valid {
		invalidInput(c, res.Errors)
		return
	}
	cat, err := h.svc.AddCategory(c.Request.Context(), res.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

// UpdateCategory replaces the category named in the path. Entries keep the body type names they carry.
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	_ = c.ShouldBind(&req)
	res := validation.Category(validation.CategoryInput{Name: req.Name, Icon: req.Icon})
	if !res.Valid {
		invalidInput(c, res.Errors)
		return
	}
	cat, err := h.svc.UpdateCategory(c.Request.Context(), c.Param("name"), res.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
