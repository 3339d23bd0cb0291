package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDoc(t *testing.T) {
	raw := SwaggerInfo.ReadDoc()

	var doc struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
		Defs    map[string]any            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)

	routes := map[string]string{
		"/auth/signup":          "post",
		"/auth/verify":          "get",
		"/auth/login":           "post",
		"/auth/forgot-password": "post",
		"/auth/reset-password":  "get",
		"/auth/change-password": "put",
		"/auth/check-email":     "post",
		"/auth/me":              "get",
		"/health":               "get",
	}
	assert.Len(t, doc.Paths, len(routes))
	for path, method := range routes {
		assert.Contains(t, doc.Paths[path], method, path)
	}

	assert.Contains(t, doc.Defs, "auth.AuthTokens")
	assert.Contains(t, doc.Defs, "httputil.ErrorResponse")
}
