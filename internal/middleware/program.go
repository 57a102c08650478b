package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"happymeter/internal/loyalty"
	"happymeter/internal/models"
	"happymeter/internal/repository"

	"github.com/gin-gonic/gin"
)

// ProgramOwner loads :program_id and rejects callers that do not own it.
// The program is stored in context under "program".
func ProgramOwner(programRepo *repository.ProgramRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("program_id"), 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid program id"})
			return
		}
		p, err := programRepo.GetByID(c.Request.Context(), uint(id))
		if err != nil {
			var nf *loyalty.NotFoundError
			if errors.As(err, &nf) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "program not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load program"})
			return
		}
		if p.OwnerID != GetOwnerID(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "program access denied"})
			return
		}
		c.Set("program", p)
		c.Next()
	}
}

// GetProgram returns the program loaded by ProgramOwner.
func GetProgram(c *gin.Context) *models.LoyaltyProgram {
	v, _ := c.Get("program")
	p, _ := v.(*models.LoyaltyProgram)
	return p
}
