package handler

import (
	"course-notes-admin/internal/controller"
	"course-notes-admin/internal/entity"
	"course-notes-admin/internal/pkg/logger"
	"course-notes-admin/internal/pkg/serverutils"
	internalWS "course-notes-admin/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ProgressHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *ProgressHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/:category/course/:courseId/:unitId/:topicId", h.ServeWs)
}

// ServeWs streams upload progress for the caller's draft on this route key.
// The draft is found through the session cookie, as on the page itself.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	key, err := controller.RouteKeyFromParams(c)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	draftId := entity.DraftId(serverutils.SessionID(c), key)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Debug("ProgressHandler", "Starting progress stream", map[string]interface{}{"route_key": key.String()})
		internalWS.ServeWs(h.hub, conn, draftId)
		h.logger.Debug("ProgressHandler", "Progress stream ended", map[string]interface{}{"route_key": key.String()})
	})(c)
}
