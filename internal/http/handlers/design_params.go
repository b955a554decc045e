package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
)

type DesignParamsHandler struct{}

func NewDesignParamsHandler() *DesignParamsHandler { return &DesignParamsHandler{} }

type resolveParamsRequest struct {
	DesignParameters        designparams.Parameters `json:"designParameters"`
	ProgramDesignParameters designparams.Parameters `json:"programDesignParameters"`
}

// GET /api/design-parameters
func (h *DesignParamsHandler) Catalog(c *gin.Context) {
	response.RespondOK(c, gin.H{"definitions": designparams.Definitions(), "defaults": designparams.Defaults()})
}

// POST /api/design-parameters/validate
func (h *DesignParamsHandler) Validate(c *gin.Context) {
	var p designparams.Parameters
	if err := c.ShouldBindJSON(&p); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, designparams.Validate(p))
}

// POST /api/design-parameters/resolve
func (h *DesignParamsHandler) Resolve(c *gin.Context) {
	var req resolveParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	eff := designparams.Resolve(req.DesignParameters, req.ProgramDesignParameters)
	response.RespondOK(c, gin.H{
		"effectiveParameters": eff,
		"audienceLabel":       designparams.AudienceLabel(eff),
		"instructionBlock":    designparams.InstructionBlock(eff),
	})
}
