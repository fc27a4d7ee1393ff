package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/podcaststudio/server/internal/shared/errors"
)

// Error sends an error response with the given status code.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, apperrors.ErrorResponse{Error: message})
}

// ErrorMapping maps a domain error to an HTTP status and message.
type ErrorMapping struct {
	Err     error
	Status  int
	Message string
}

// HandleError writes the response of the first mapping matching err.
// Unmatched errors fall back to the status carried by err; the message is
// the error text, which is what the page shows after "Error: ".
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			msg := m.Message
			if msg == "" {
				msg = m.Err.Error()
			}
			Error(c, m.Status, msg)
			return
		}
	}

	_ = c.Error(err)
	Error(c, apperrors.GetStatusCode(err), err.Error())
}
