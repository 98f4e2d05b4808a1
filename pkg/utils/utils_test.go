package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "Alert ALT-9 not found")

	gt.V(t, rec.Code).Equal(http.StatusNotFound)
	gt.V(t, rec.Header().Get("Content-Type")).Equal("application/json")
	gt.S(t, rec.Body.String()).Contains(`"error":"Alert ALT-9 not found"`)
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	err := SendSSEEvent(rec, rec, "delta", map[string]string{"content": "Hello"})
	gt.NoError(t, err)
	gt.V(t, rec.Header().Get("Content-Type")).Equal("text/event-stream")
	gt.V(t, rec.Body.String()).Equal("event: delta\ndata: {\"content\":\"Hello\"}\n\n")
	gt.True(t, rec.Flushed)
}
