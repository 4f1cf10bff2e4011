package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disiplinku/backend/apps/api/echo"
	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
	"github.com/disiplinku/backend/services/logger"
)

func TestServer_home(t *testing.T) {
	app := setup(t, "sa")
	rec := app.do(httpTest{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Disiplinku API!", rec.Body.String())
}

func TestServer_login(t *testing.T) {
	app := setup(t, "sa")
	path := "/v1/users/login"

	tests := []httpTest{
		{
			name:     "missing password",
			body:     []byte(`{"username":"kesiswaan"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"this field is required"}`),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username":"kesiswaan","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown admin",
			body:     []byte(`{"username":"nobody","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, path
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	t.Run("ok", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPost,
			path:   path,
			body:   []byte(`{"username":" kesiswaan ","password":"` + adminPassword + `"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct{ Token string }
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		// the token authorizes a trigger
		rec = app.do(httpTest{method: http.MethodPost, path: "/v1/notification-send", token: resp.Token})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestServer_notificationSend_auth(t *testing.T) {
	app := setup(t, "sa")
	path := "/v1/notification-send"

	tests := []httpTest{
		{
			name:     "no credentials",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "missing or malformed jwt"}),
		},
		{
			name:     "invalid api key",
			apiKey:   "kesi_000000000000000000000000",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid API key"}),
		},
		{
			name:     "invalid jwt",
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "api key header",
			apiKey:   app.apiKey,
			body:     []byte(`{"type":"calls"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "api key query",
			path:     path + "?api_key=" + app.apiKey,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			if tt.path == "" {
				tt.path = path
			}
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func TestServer_notificationSend(t *testing.T) {
	t.Run("all queues", func(t *testing.T) {
		app := setup(t, "sa")
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/api/notification-send",
			apiKey:   app.apiKey,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, notification.Envelope{
				Success: true,
				Message: map[string]string{
					"calls":      "processed 1 (delivered 1, skipped 0, failed 0)",
					"posts":      "processed 1 (delivered 1, skipped 0, failed 0)",
					"violations": "processed 1 (delivered 1, skipped 0, failed 0)",
				},
			}),
		}
		checkCodeAndData(t, tt, app.do(tt))
		assert.Equal(t, 3, app.provider.Calls())

		// drained: nothing left to deliver
		tt.body = []byte(`{"type":"general"}`)
		tt.wantData = marchallObj(t, notification.Envelope{Success: true, Message: "nothing to process"})
		checkCodeAndData(t, tt, app.do(tt))
		assert.Equal(t, 3, app.provider.Calls())
	})

	t.Run("type query param", func(t *testing.T) {
		app := setup(t, "sa")
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/notification-send?type=violations",
			token:    getToken(t, app.admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, notification.Envelope{Success: true, Message: "processed 1 (delivered 1, skipped 0, failed 0)"}),
		}
		checkCodeAndData(t, tt, app.do(tt))
		assert.False(t, app.store.WasRead("incomingCalls"))
		assert.False(t, app.store.WasRead("notifications"))
	})

	t.Run("delivery failure", func(t *testing.T) {
		app := setup(t, "sa")
		app.provider.FailWhen = func(p *notification.Payload) bool { return p.Data["notificationId"] == "-Post1" }
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/notification-send",
			body:     []byte(`{"type":"posts"}`),
			token:    getToken(t, app.admin),
			wantCode: http.StatusInternalServerError,
			wantData: marchallObj(t, notification.Envelope{
				Message: "processed 1 (delivered 0, skipped 0, failed 1)",
				Error:   "1 of 1 post deliveries failed",
			}),
		}
		checkCodeAndData(t, tt, app.do(tt))
	})

	t.Run("missing credential", func(t *testing.T) {
		app := setup(t, "")
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/notification-send",
			token:    getToken(t, app.admin),
			wantCode: http.StatusInternalServerError,
			wantData: []byte(`{"success":false,"error":"firebase configuration missing"}`),
		}
		checkCodeAndData(t, tt, app.do(tt))
		assert.Zero(t, app.store.ReadCount())
		assert.Zero(t, app.provider.Calls())
	})

	t.Run("json body whatever the content type", func(t *testing.T) {
		tests := []httpTest{
			{name: "no header", noContentType: true},
			{name: "text", contentType: "text/plain"},
			{name: "form", contentType: "application/x-www-form-urlencoded"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				app := setup(t, "sa")
				tt.method, tt.path = http.MethodPost, "/api/notification-send"
				tt.body = []byte(`{"type":"calls"}`)
				tt.apiKey = app.apiKey
				tt.wantCode = http.StatusOK
				tt.wantData = marchallObj(t, notification.Envelope{Success: true, Message: "processed 1 (delivered 1, skipped 0, failed 0)"})

				checkCodeAndData(t, tt, app.do(tt))
				assert.Equal(t, 1, app.provider.Calls())
				assert.True(t, app.store.WasRead("incomingCalls"))
				assert.False(t, app.store.WasRead("notifications"))
				assert.False(t, app.store.WasRead("peringatan-popup"))
			})
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		app := setup(t, "sa")
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/notification-send",
			body:     []byte(`{"type":`),
			apiKey:   app.apiKey,
			wantCode: http.StatusBadRequest,
		}
		checkCodeAndData(t, tt, app.do(tt))
		assert.Zero(t, app.provider.Calls())
		assert.Zero(t, app.store.ReadCount())
	})
}

type ctxDispatcher struct {
	ctxErr error
}

func (d *ctxDispatcher) Dispatch(ctx context.Context, _ notification.Selector) (notification.Result, error) {
	d.ctxErr = ctx.Err()
	return notification.Result{Selector: notification.SelectAll}, nil
}

func TestServer_notificationSend_clientGone(t *testing.T) {
	app := setup(t, "sa")
	disp := &ctxDispatcher{}
	validate, translator := core.NewValidator()
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logsvc.NewNopLogger(),
		AdminSvc:   app.adminSvc,
		Dispatcher: disp,
		Validate:   validate,
		Translator: translator,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/notification-send", nil).WithContext(ctx)
	req.Header.Set("x-api-key", app.apiKey)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, disp.ctxErr)
}
