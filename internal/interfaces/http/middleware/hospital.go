package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hospital/backend/internal/interfaces/http/dto"
)

// Hospital context keys
const (
	HospitalIDKey    = "hospital_id"
	HospitalIDHeader = "X-Hospital-ID"
)

// HospitalConfig holds configuration for the hospital middleware
type HospitalConfig struct {
	// SkipPaths are paths served without a hospital context
	SkipPaths []string
}

// DefaultHospitalConfig returns the default hospital middleware configuration
func DefaultHospitalConfig() HospitalConfig {
	return HospitalConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
	}
}

// Hospital extracts the hospital ID from the X-Hospital-ID header. Every
// business route is scoped to one hospital; requests without a valid header
// are rejected before any handler runs.
func Hospital() gin.HandlerFunc {
	return HospitalWithConfig(DefaultHospitalConfig())
}

// HospitalWithConfig returns hospital middleware with custom configuration
func HospitalWithConfig(cfg HospitalConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		header := c.GetHeader(HospitalIDHeader)
		if header == "" {
			abortUnauthorized(c, "Hospital identification required")
			return
		}
		hospitalID, err := uuid.Parse(header)
		if err != nil || hospitalID == uuid.Nil {
			abortUnauthorized(c, "Invalid hospital ID format")
			return
		}

		c.Set(HospitalIDKey, hospitalID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetHospitalID retrieves the hospital ID from the gin context; uuid.Nil
// when the middleware did not run for this route
func GetHospitalID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(HospitalIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
