package handler

import (
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/middleware"
	"github.com/regops/dossier-flow-api/internal/models"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

// identityFrom resolves the acting reviewer from validated JWT claims.
func identityFrom(c *gin.Context) (models.Identity, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return models.Identity{}, appErrors.ErrUnauthorized
	}
	return claims.Identity(), nil
}

// applicationID parses the :id path parameter.
func applicationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid application id")
	}
	return id, nil
}

// fileModTime stats an open file for range-request support; zero time when the
// stat fails.
func fileModTime(f *os.File) time.Time {
	info, err := f.Stat()
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
