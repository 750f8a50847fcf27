package handlers

import (
	"inventory-service/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BranchHandler expone las sucursales registradas
type BranchHandler struct {
	branches repository.BranchRepository
	logger   *zap.Logger
}

func NewBranchHandler(branches repository.BranchRepository, logger *zap.Logger) *BranchHandler {
	return &BranchHandler{
		branches: branches,
		logger:   logger.With(zap.String("handler", "branches")),
	}
}

// ListBranches ?active_only=true filtra las inactivas
func (h *BranchHandler) ListBranches(c *gin.Context) {
	activeOnly, err := queryBool(c, "active_only")
	if err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}

	branches, err := h.branches.ListBranches(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo sucursales", err)
		return
	}
	respondData(c, branches)
}
