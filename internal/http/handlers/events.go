package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/realtime"
)

type EventsHandler struct {
	hub *realtime.Hub
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// GET /api/events?channel=<lessonId|programId>[,<channel>...]
func (h *EventsHandler) Stream(c *gin.Context) {
	var channels []string
	for _, raw := range c.QueryArray("channel") {
		for _, ch := range strings.Split(raw, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				channels = append(channels, ch)
			}
		}
	}
	if len(channels) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_channel", errors.New("channel query parameter is required"))
		return
	}

	client := h.hub.NewClient()
	for _, ch := range channels {
		h.hub.AddChannel(client, ch)
	}
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
