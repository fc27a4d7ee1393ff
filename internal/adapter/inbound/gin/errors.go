package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/podcaststudio/server/internal/domain/podcast"
	"github.com/podcaststudio/server/internal/shared/response"
)

var generateErrors = []response.ErrorMapping{
	{Err: podcast.ErrTopicRequired, Status: http.StatusBadRequest, Message: "Topic is required."},
	{Err: podcast.ErrSpeechUnavailable, Status: http.StatusServiceUnavailable},
	{Err: podcast.ErrEmptyScript, Status: http.StatusBadGateway},
}

// handleError maps podcast domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	response.HandleError(c, err, generateErrors)
}
