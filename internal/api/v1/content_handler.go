package v1

import (
	"taskhub/internal/api/middleware"
	"taskhub/internal/api/response"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
)

// ContentHandler serves the catalogue pages: settings, VIP ladder, activities and the inbox.
type ContentHandler struct {
	settings   *services.SettingsService
	vip        *services.VipService
	activities *services.ActivityService
	notices    *services.NotificationService
}

type submissionRequest struct {
	SampleImage     string `json:"sample_image"`
	CompletionNotes string `json:"completion_notes"`
}

type inboxReply struct {
	Items  []services.MessageView `json:"items"`
	Unread int                    `json:"unread"`
}

func newContentHandler(settings *services.SettingsService, vip *services.VipService,
	activities *services.ActivityService, notices *services.NotificationService) *ContentHandler {
	return &ContentHandler{settings: settings, vip: vip, activities: activities, notices: notices}
}

func RegisterPublicContentRoutes(group *gin.RouterGroup, settings *services.SettingsService, vip *services.VipService) {
	h := newContentHandler(settings, vip, nil, nil)
	group.GET("/settings", h.Settings)
	group.GET("/vip", h.VipLevels)
}

func RegisterContentRoutes(group *gin.RouterGroup, activities *services.ActivityService, notices *services.NotificationService) {
	h := newContentHandler(nil, nil, activities, notices)
	group.GET("/activities", h.Activities)
	group.POST("/activities/:id/submissions", h.SubmitActivity)
	group.GET("/messages", h.Messages)
	group.POST("/messages/:id/read", h.MarkRead)
}

func (h *ContentHandler) Settings(c *gin.Context) {
	settings, err := h.settings.Public(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

func (h *ContentHandler) VipLevels(c *gin.Context) {
	levels, err := h.vip.ListVipLevels(c.Request.Context(), 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, levels)
}

func (h *ContentHandler) Activities(c *gin.Context) {
	list, err := h.activities.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (h *ContentHandler) SubmitActivity(c *gin.Context) {
	var req submissionRequest
	if !bind(c, &req) {
		return
	}
	sub, err := h.activities.Submit(c.Request.Context(), middleware.UserId(c), c.Param("id"), req.SampleImage, req.CompletionNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

func (h *ContentHandler) Messages(c *gin.Context) {
	items, err := h.notices.ListForUser(c.Request.Context(), middleware.UserId(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	unread := 0
	for _, m := range items {
		if !m.Read {
			unread++
		}
	}
	response.Success(c, inboxReply{Items: items, Unread: unread})
}

func (h *ContentHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.notices.MarkRead(c.Request.Context(), middleware.UserId(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
