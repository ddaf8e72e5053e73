package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/trail"),
		attribute.String("provider_config.secret_key", "sk_live"),
		attribute.String("Authorization", "Bearer x"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	err := SafeError(errors.New("insert failed\nSQL: INSERT INTO payments_configs ..."))
	assert.Equal(t, "insert failed", err.Error())

	long := SafeError(errors.New(strings.Repeat("x", 400)))
	assert.Len(t, long.Error(), 256)
}

func TestNewProviderDisabledIsNoop(t *testing.T) {
	tp, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
	assert.NotNil(t, tp)
}

func TestGinMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGinMiddlewareCarriesCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	var seen string
	r.GET("/health", func(c *gin.Context) {
		seen = correlation.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(correlation.Header, "gw-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "gw-42", seen)
	assert.Equal(t, "gw-42", w.Header().Get(correlation.Header))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "gw-42", seen)
	assert.Equal(t, seen, w.Header().Get(correlation.Header))
}
