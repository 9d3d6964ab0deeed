package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupHospitalRouter() (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var captured uuid.UUID
	r := gin.New()
	r.Use(RequestID(), Hospital())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/invoices", func(c *gin.Context) {
		captured = GetHospitalID(c)
		c.Status(http.StatusOK)
	})
	return r, &captured
}

func TestHospital_ValidHeader(t *testing.T) {
	r, captured := setupHospitalRouter()
	hospitalID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	req.Header.Set(HospitalIDHeader, hospitalID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, hospitalID, *captured)
}

func TestHospital_MissingHeader(t *testing.T) {
	r, _ := setupHospitalRouter()

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestHospital_MalformedHeader(t *testing.T) {
	r, _ := setupHospitalRouter()

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	req.Header.Set(HospitalIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHospital_SkipsHealthPath(t *testing.T) {
	r, _ := setupHospitalRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_HonorsCallerSupplied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
