package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseMetaCollectsEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())

	var meta map[string]interface{}
	router.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "provider_id", "ws-1")
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "ws-1", meta["provider_id"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	meta := ExtractMeta(c)
	assert.NotNil(t, meta)
	assert.NotContains(t, meta, "processing_time_ms")
	assert.Nil(t, ExtractMeta(nil))
}
