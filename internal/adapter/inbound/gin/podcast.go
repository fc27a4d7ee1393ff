package gin

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/podcaststudio/server/internal/model"
	"github.com/podcaststudio/server/internal/port/inbound"
	"github.com/podcaststudio/server/internal/shared/response"
	"github.com/podcaststudio/server/web"
)

// PodcastHandler serves the generator page, the generation API and the
// artifact downloads.
type PodcastHandler struct {
	domain inbound.PodcastDomain
}

// NewPodcastHandler creates a new podcast HTTP handler.
func NewPodcastHandler(domain inbound.PodcastDomain) *PodcastHandler {
	return &PodcastHandler{domain: domain}
}

// RegisterRoutes registers the page, API and download routes. The router
// must have the web templates loaded. generateMW runs before Generate only.
func (h *PodcastHandler) RegisterRoutes(r gin.IRouter, generateMW ...gin.HandlerFunc) {
	r.GET("/", h.Index)
	r.StaticFS("/static", http.FS(web.Static()))

	api := r.Group("/api")
	{
		api.POST("/generate", append(generateMW, h.Generate)...)
		api.GET("/episodes", h.ListEpisodes)
	}

	download := r.Group("/download")
	{
		download.GET("/script", h.DownloadScript)
		download.GET("/audio", h.DownloadAudio)
	}
}

// Index renders the generator form.
func (h *PodcastHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"DefaultModel": h.domain.DefaultModel(),
	})
}

// Generate runs one podcast generation.
func (h *PodcastHandler) Generate(c *gin.Context) {
	req := bindGenerationRequest(c)

	result, err := h.domain.Generate(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListEpisodes returns recent generations.
func (h *PodcastHandler) ListEpisodes(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	episodes, err := h.domain.ListEpisodes(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"episodes": episodes})
}

// DownloadScript sends a generated script as an attachment.
func (h *PodcastHandler) DownloadScript(c *gin.Context) {
	h.download(c, model.ArtifactScript, "Script file not found.")
}

// DownloadAudio sends generated audio as an attachment.
func (h *PodcastHandler) DownloadAudio(c *gin.Context) {
	h.download(c, model.ArtifactAudio, "Audio file not found.")
}

func (h *PodcastHandler) download(c *gin.Context, kind model.ArtifactKind, notFound string) {
	path, err := h.domain.ResolveArtifact(c.Request.Context(), kind, c.Query("path"))
	if err != nil {
		response.Error(c, http.StatusNotFound, notFound)
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}
