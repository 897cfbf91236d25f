package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/catalog"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/moderation"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
)

// EntryHandler drives the moderation pipeline: public submissions, editor
// review and editor changes to the published catalog.
type EntryHandler struct {
	pipeline *moderation.Pipeline
	catalog  *catalog.Service
	uploads  *Uploader
}

func NewEntryHandler(p *moderation.Pipeline, cat *catalog.Service, up *Uploader) *EntryHandler {
	return &EntryHandler{pipeline: p, catalog: cat, uploads: up}
}

// Register mounts the editor routes behind guard. POST /pending is public
// and only passes through limit, which may be nil.
func (h *EntryHandler) Register(rg *gin.RouterGroup, limit gin.HandlerFunc, guard ...gin.HandlerFunc) {
	rg.POST("/pending", chain(limit, h.Submit)...)

	e := rg.Group("", guard...)
	e.GET("/pending", h.ListPending)
	e.GET("/pending/:id", h.GetPending)
	e.POST("/pending/:id/approve", h.Approve)
	e.POST("/pending/:id/reject", h.Reject)
	e.POST("/cars", h.Create)
	e.PUT("/cars/:id", h.Edit)
	e.DELETE("/cars/:id", h.Delete)
}

func (h *EntryHandler) ListPending(c *gin.Context) {
	list, err := h.pipeline.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": list})
}

func (h *EntryHandler) GetPending(c *gin.Context) {
	e, err := h.pipeline.GetPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": e})
}

func (h *EntryHandler) Submit(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	e, err := h.pipeline.Submit(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pending": e, "message": "submission stored, awaiting review"})
}

func (h *EntryHandler) Create(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	e, err := h.pipeline.Create(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"car": e})
}

// draft reads the form and stages its images under a fresh id.
func (h *EntryHandler) draft(c *gin.Context) (moderation.Draft, bool) {
	f, err := readEntryForm(c)
	if err != nil {
		respondError(c, err)
		return moderation.Draft{}, false
	}
	id := h.pipeline.NewID()
	uploaded, err := h.uploads.Stage(c.Request.Context(), id, multipartImages(c.Request.MultipartForm), true)
	if err != nil {
		respondError(c, err)
		return moderation.Draft{}, false
	}
	return moderation.Draft{
		ID:       id,
		Fields:   entryInput(f),
		Uploaded: uploaded,
		External: f.list("imageUrls", "\n,"),
	}, true
}

// Edit patches a published entry. Fields left out of the request keep their
// stored values; keepImages, when present, lists the current images to keep.
func (h *EntryHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.catalog.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	f, err := readEntryForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	uploaded, err := h.uploads.Stage(c.Request.Context(), id, multipartImages(c.Request.MultipartForm), false)
	if err != nil {
		respondError(c, err)
		return
	}
	patch := entryPatch(f)
	patch.Uploaded = uploaded

	e, err := h.pipeline.Edit(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": e})
}

func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.pipeline.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

func (h *EntryHandler) Approve(c *gin.Context) {
	e, err := h.pipeline.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": e})
}

func (h *EntryHandler) Reject(c *gin.Context) {
	if err := h.pipeline.Reject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission rejected and deleted"})
}

func entryInput(f entryForm) validation.EntryInput {
	return validation.EntryInput{
		Brand:            f.get("brand"),
		Model:            f.get("model"),
		Year:             f.get("year"),
		PowerPS:          f.get("powerPS"),
		TopSpeed:         f.get("topSpeed"),
		Acceleration:     f.get("acceleration_0_100"),
		Consumption:      f.get("consumption"),
		BodyTypes:        f.list("bodyTypes", ","),
		CustomAttributes: f.customAttributes(),
	}
}

func entryPatch(f entryForm) moderation.Patch {
	p := moderation.Patch{
		Brand:        f.ptr("brand"),
		Model:        f.ptr("model"),
		Year:         f.ptr("year"),
		PowerPS:      f.ptr("powerPS"),
		TopSpeed:     f.ptr("topSpeed"),
		Acceleration: f.ptr("acceleration_0_100"),
		Consumption:  f.ptr("consumption"),
		Kept:         f.keepImages(),
		External:     f.list("imageUrls", "\n,"),
	}
	if f.has("bodyTypes") {
		p.BodyTypes = f.list("bodyTypes", ",")
	}
	if f.has("customCategories") {
		p.CustomAttributes = f.customAttributes()
	}
	return p
}
