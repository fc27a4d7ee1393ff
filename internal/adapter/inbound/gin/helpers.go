package gin

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/podcaststudio/server/internal/model"
)

const maxRequestBody = 1 << 20

// bindGenerationRequest reads a generation request from the body. Malformed
// or non-object JSON reads as an empty request, and loosely typed fields
// are coerced the way the browser form sends them.
func bindGenerationRequest(c *gin.Context) *model.GenerationRequest {
	req := &model.GenerationRequest{}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		return req
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return req
	}

	req.Topic = stringField(payload["topic"])
	req.Style = stringField(payload["style"])
	req.Model = stringField(payload["model"])
	req.DurationMinutes = intField(payload["duration_minutes"])
	req.SkipAudio = truthy(payload["skip_audio"])
	return req
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// intField converts a JSON number or numeric string to an int. Anything
// else is zero, which the domain replaces with the default duration.
func intField(v any) int {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	default:
		return false
	}
}

// queryInt returns the integer query parameter key, or def when it is
// missing or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
