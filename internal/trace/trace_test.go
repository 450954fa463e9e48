package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskHidesSensitiveKeys(t *testing.T) {
	masked := Mask(map[string]interface{}{
		"email":         "alice@x.com",
		"Password":      "secret1",
		"token":         "abc",
		"Authorization": "Bearer abc",
		"nested": map[string]interface{}{
			"password": "secret2",
			"note":     "keep",
		},
	})

	require.Equal(t, "alice@x.com", masked["email"])
	require.Equal(t, "***", masked["Password"])
	require.Equal(t, "***", masked["token"])
	require.Equal(t, "***", masked["Authorization"])

	nested := masked["nested"].(map[string]interface{})
	require.Equal(t, "***", nested["password"])
	require.Equal(t, "keep", nested["note"])
}

func TestMaskDoesNotMutateInput(t *testing.T) {
	original := map[string]interface{}{"password": "secret1"}
	Mask(original)
	require.Equal(t, "secret1", original["password"])
}

func TestMiddlewareAssignsCorrelationID(t *testing.T) {
	var seenID string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = ID(r.Context())
		require.NotNil(t, Logger(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, seenID)
	require.Len(t, seenID, 8)
}

func TestMiddlewareGivesEachRequestItsOwnID(t *testing.T) {
	ids := map[string]bool{}
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[ID(r.Context())] = true
	}))

	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	require.Len(t, ids, 5)
}

func TestIDOutsideRequestIsEmpty(t *testing.T) {
	require.Empty(t, ID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
