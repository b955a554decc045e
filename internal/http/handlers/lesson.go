package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type LessonHandler struct {
	lessons services.LessonService
}

func NewLessonHandler(lessons services.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// POST /api/lessons/generate
func (h *LessonHandler) Generate(c *gin.Context) {
	var req services.GenerateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if c.Query("fallback") == "true" {
		req.Fallback = true
	}
	res, err := h.lessons.Generate(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
