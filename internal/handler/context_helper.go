package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/middleware"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorFromContext(c *gin.Context) models.Actor {
	return models.ActorFromClaims(claimsFromContext(c))
}

func womIDParam(c *gin.Context) (int64, error) {
	raw := c.Param("womId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid character id")
	}
	return id, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+key)
	}
	return v, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
