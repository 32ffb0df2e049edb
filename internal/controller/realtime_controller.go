package controller

import (
	"io"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type EventListener interface {
	Listen(userID string) (<-chan realtime.Event, func())
}

// RealtimeController streams change events to the browser over SSE.
type RealtimeController struct {
	Hub EventListener
}

func NewRealtimeController(hub EventListener) *RealtimeController {
	return &RealtimeController{Hub: hub}
}

// @Summary 实时事件流
// @Tags 实时
// @Produce text/event-stream
// @Router /api/realtime [get]
func (c *RealtimeController) Stream(ctx *gin.Context) {
	session := util.GetSessionFromContext(ctx)
	if session == nil {
		util.Unauthorized(ctx)
		return
	}
	if c.Hub == nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Realtime updates are disabled")
		return
	}

	events, cancel := c.Hub.Listen(session.UserID)
	defer cancel()

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			ctx.SSEvent(ev.Table, ev)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}
