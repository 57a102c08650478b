package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"happymeter/internal/loyalty"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// engineError writes the response for a failed ProcessEvent.
func engineError(c *gin.Context, err error) {
	if errors.Is(err, loyalty.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Customer not found"})
		return
	}
	log.Printf("[handler] process event: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to process event"})
}

func isNotFound(err error) bool {
	var nf *loyalty.NotFoundError
	return errors.As(err, &nf)
}
