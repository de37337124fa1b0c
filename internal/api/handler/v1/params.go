package v1

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func uintParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, ctx.Param(name))
	}

	return uint(id), nil
}

// orderIDParam rejects ids that cannot belong to an order before any query runs.
func orderIDParam(ctx *gin.Context) (string, error) {
	id := ctx.Param("orderID")
	if uuid.Validate(id) != nil {
		return "", fmt.Errorf("invalid order id %q", id)
	}

	return id, nil
}
