package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type ProgramHandler struct {
	programs services.ProgramService
	builds   services.ProgramBuildService
}

func NewProgramHandler(programs services.ProgramService, builds services.ProgramBuildService) *ProgramHandler {
	return &ProgramHandler{programs: programs, builds: builds}
}

// POST /api/programs
func (h *ProgramHandler) Create(c *gin.Context) {
	var req services.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.programs.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"program": p})
}

// GET /api/programs/:id
func (h *ProgramHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_program_id", err)
		return
	}
	p, err := h.programs.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"program": p})
}

// POST /api/programs/:id/build
//
// With ?wait=true the build runs inside the request and the summary is
// returned; otherwise the build is started and a ticket is returned.
func (h *ProgramHandler) Build(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_program_id", err)
		return
	}
	var opts services.BuildOptions
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	if c.Query("fallback") == "true" {
		opts.Fallback = true
	}

	if c.Query("wait") == "true" {
		summary, err := h.builds.BuildAll(c.Request.Context(), id, opts)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondOK(c, gin.H{"build": summary})
		return
	}

	ticket, err := h.builds.Start(c.Request.Context(), id, opts)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"build": ticket})
}
