package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/codes"
)

type ProgramCodeHandler struct {
	now func() time.Time
}

func NewProgramCodeHandler() *ProgramCodeHandler {
	return &ProgramCodeHandler{now: time.Now}
}

type programCodeRequest struct {
	Domain string `json:"domain"`
	Niche  string `json:"niche"`
	// EpochMillis pins the timestamp suffix; zero means now.
	EpochMillis int64 `json:"epochMillis,omitempty"`
}

// POST /api/program-codes
func (h *ProgramCodeHandler) Generate(c *gin.Context) {
	var req programCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ms := req.EpochMillis
	if ms <= 0 {
		ms = h.now().UnixMilli()
	}
	code := codes.ProgramCode(req.Domain, req.Niche, ms)
	parts, _ := codes.ValidateProgramCode(code)
	response.RespondOK(c, gin.H{"code": code, "components": parts})
}

// GET /api/program-codes/:code/validate
func (h *ProgramCodeHandler) Validate(c *gin.Context) {
	parts, err := codes.ValidateProgramCode(c.Param("code"))
	if err != nil {
		response.RespondOK(c, gin.H{"isValid": false, "error": err.Error()})
		return
	}
	out := gin.H{"isValid": true, "components": parts}
	if domain, ok := codes.DomainForGenre(parts.Genre); ok {
		out["domain"] = domain
	}
	response.RespondOK(c, out)
}
