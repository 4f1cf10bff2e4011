package pushsvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
)

func newOneSignalServer(t *testing.T, code int, got *map[string]interface{}, auth *string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*auth = r.Header.Get("Authorization")
		body, err := ioutil.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, got))
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"id":"n-1","recipients":1}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOneSignalService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("call payload", func(t *testing.T) {
		var got map[string]interface{}
		var auth string
		srv := newOneSignalServer(t, http.StatusOK, &got, &auth)
		svc := NewOneSignalService(core.OneSignalConfig{AppID: "app-1", APIKey: "key-1", Endpoint: srv.URL}, nil)

		ev := notification.CallEvent{RecipientID: "u1", Key: "c1", CallType: "video", CallID: "call-9"}
		p := notification.BuildCallPayload(ev, notification.Recipient{ID: "u1", PlayerID: "player-1"}, "Budi")
		require.NoError(t, svc.Send(ctx, p))

		assert.Equal(t, "Basic key-1", auth)
		assert.Equal(t, "app-1", got["app_id"])
		assert.Equal(t, []interface{}{"player-1"}, got["include_player_ids"])
		assert.Equal(t, map[string]interface{}{"en": "Panggilan Masuk"}, got["headings"])
		assert.Equal(t, map[string]interface{}{"en": "Panggilan video Dari Budi"}, got["contents"])
		assert.Equal(t, "call.wav", got["ios_sound"])
		assert.Equal(t, "Increase", got["ios_badgeType"])
		assert.Equal(t, float64(1), got["ios_badgeCount"])
		assert.NotContains(t, got, "big_picture")
		assert.NotContains(t, got, "included_segments")
	})

	t.Run("post payload with media", func(t *testing.T) {
		var got map[string]interface{}
		var auth string
		srv := newOneSignalServer(t, http.StatusOK, &got, &auth)
		svc := NewOneSignalService(core.OneSignalConfig{AppID: "app-1", APIKey: "key-1", Endpoint: srv.URL}, nil)

		p := notification.BuildPostPayload(notification.PostEvent{Key: "p1", Name: "OSIS", Content: "hi", ImageURL: "https://img/1.png"}, 100)
		require.NoError(t, svc.Send(ctx, p))

		assert.Equal(t, []interface{}{"All"}, got["included_segments"])
		assert.Equal(t, "https://img/1.png", got["big_picture"])
		assert.Equal(t, map[string]interface{}{"image": "https://img/1.png"}, got["ios_attachments"])
	})

	t.Run("provider error", func(t *testing.T) {
		var got map[string]interface{}
		var auth string
		srv := newOneSignalServer(t, http.StatusBadRequest, &got, &auth)
		svc := NewOneSignalService(core.OneSignalConfig{AppID: "app-1", APIKey: "key-1", Endpoint: srv.URL}, nil)

		err := svc.Send(ctx, notification.BuildPostPayload(notification.PostEvent{Key: "p1", Name: "OSIS"}, 100))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status: 400")
	})
}

func TestHeadProber_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.png":
			w.WriteHeader(http.StatusOK)
		case "/slow.png":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	prober := NewHeadProber(50*time.Millisecond, nil)
	ctx := context.Background()

	assert.NoError(t, prober.Probe(ctx, srv.URL+"/ok.png"))
	assert.Error(t, prober.Probe(ctx, srv.URL+"/missing.png"))
	assert.Error(t, prober.Probe(ctx, srv.URL+"/slow.png"))
}

func TestSend_context(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	req := rest.Request{Method: rest.Post, BaseURL: srv.URL, Body: []byte(`{}`)}

	res, err := send(context.Background(), rest.DefaultClient, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, res.Body)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = send(ctx, rest.DefaultClient, req)
	assert.Error(t, err)
}
