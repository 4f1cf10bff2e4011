package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/disiplinku/backend/apps/api/echo"
	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/admin"
	"github.com/disiplinku/backend/core/notification"
	"github.com/disiplinku/backend/services/logger"
	"github.com/disiplinku/backend/tests"
)

const adminPassword = "Disiplin#2024"

var conf = &core.Config{
	AppName:   "Disiplinku",
	SecretKey: "secret",
	TestMode:  true,
	Server:    core.ServerConfig{JWTExpirationDelta: 10 * time.Minute},
}

type httpTest struct {
	name   string
	method string
	path   string
	body   []byte
	token  string
	apiKey string
	// contentType overrides the JSON Content-Type; noContentType drops the header
	contentType   string
	noContentType bool
	wantCode      int
	wantData      []byte
}

type testApp struct {
	server   *echoapi.Server
	store    *testutil.CountingStore
	provider *testutil.FakeProvider
	adminSvc *admin.Service
	admin    admin.Admin
	apiKey   string
}

func setup(t *testing.T, credential string) *testApp {
	ctx := context.Background()
	db := testutil.SeedStore(t, testutil.Fixture())
	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)
	adminSvc := admin.NewService(db, validate)

	adm, err := adminSvc.Save(ctx, admin.NewAdmin{Username: "kesiswaan", Password: adminPassword})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	key, err := adminSvc.GenerateAPIKey(ctx, adm.ID)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	app := &testApp{
		store:    &testutil.CountingStore{Store: db},
		provider: &testutil.FakeProvider{},
		adminSvc: adminSvc,
		admin:    adm,
		apiKey:   key,
	}
	logger := logsvc.NewNopLogger()
	disp := notification.NewDispatcher(
		notification.Options{Credential: credential},
		notification.Deps{Store: app.store, Provider: app.provider, Logger: logger},
	)
	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		AdminSvc:   adminSvc,
		Dispatcher: disp,
		Validate:   validate,
		Translator: translator,
	})
	return app
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	var body bytes.Buffer
	body.Write(tt.body)
	req := httptest.NewRequest(tt.method, tt.path, &body)
	switch {
	case tt.noContentType:
	case tt.contentType != "":
		req.Header.Set("Content-Type", tt.contentType)
	default:
		req.Header.Set("Content-Type", "application/json")
	}
	if tt.token != "" {
		req.Header.Set("Authorization", "Bearer "+tt.token)
	}
	if tt.apiKey != "" {
		req.Header.Set("x-api-key", tt.apiKey)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, adm admin.Admin) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetAdminClaims(conf, adm))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

type httpErr struct {
	Error string `json:"error"`
}
