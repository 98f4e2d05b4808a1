package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestClientSendsBearerWhenConfigured(t *testing.T) {
	fb, srv := newFakeBackend(t)

	_, err := testClient(srv.URL, "").CreateSession(context.Background(), 0)
	gt.NoError(t, err)
	_, err = testClient(srv.URL, "s3cret").CreateSession(context.Background(), 0)
	gt.NoError(t, err)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	gt.V(t, fb.authHeaders).Equal([]string{"", "Bearer s3cret"})
}

func TestClientCreateSessionNumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chat_session_id": 1234}`)
	}))
	t.Cleanup(srv.Close)

	id, err := testClient(srv.URL, "").CreateSession(context.Background(), 1)
	gt.NoError(t, err)
	gt.V(t, id).Equal("1234")
}

func TestClientCreateSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"detail": "ok"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := testClient(srv.URL, "").CreateSession(context.Background(), 1)
	var f *Failure
	gt.True(t, errors.As(err, &f))
	gt.V(t, f.Reason).Equal(ReasonDecode)
}

func TestClientHTTPStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := testClient(srv.URL, "bad").Search(context.Background(), "q", 5)
	var f *Failure
	gt.True(t, errors.As(err, &f))
	gt.V(t, f.Reason).Equal(ReasonHTTPStatus)
	gt.V(t, f.Status).Equal(http.StatusUnauthorized)
	gt.V(t, f.Error()).Equal("HTTP error: 401")
}

func TestClientSearchDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>gateway</html>`)
	}))
	t.Cleanup(srv.Close)

	_, err := testClient(srv.URL, "").Search(context.Background(), "q", 5)
	var f *Failure
	gt.True(t, errors.As(err, &f))
	gt.V(t, f.Reason).Equal(ReasonDecode)
	gt.V(t, f.Reason.UserMessage()).Equal("An unexpected error occurred.")
}

func TestClientHonoursContext(t *testing.T) {
	_, srv := newFakeBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL, "").SendMessage(ctx, SendMessageRequest{SessionID: "s", Message: "m"})
	var f *Failure
	gt.True(t, errors.As(err, &f))
	gt.V(t, f.Reason).Equal(ReasonConnection)
	gt.True(t, errors.Is(err, context.Canceled))
}
