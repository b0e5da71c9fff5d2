package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/stretchr/testify/require"

	"github.com/notes/tarefas/internal/testutil"
)

const contractBaseURL = "http://localhost:7000"

// loadSpec loads and validates the OpenAPI document.
func loadSpec(t *testing.T) routers.Router {
	t.Helper()

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(filepath.Join("..", "..", "docs", "api", "openapi.yaml"))
	require.NoError(t, err, "load OpenAPI document")
	require.NoError(t, spec.Validate(context.Background()), "OpenAPI document is invalid")

	router, err := gorillamux.NewRouter(spec)
	require.NoError(t, err)
	return router
}

// TestContract_ResponsesMatchOpenAPI drives the real router and checks every
// response against the documented schema.
func TestContract_ResponsesMatchOpenAPI(t *testing.T) {
	specRouter := loadSpec(t)
	api := newTestAPI(t)

	cases := []struct {
		name         string
		method       string
		path         string
		body         string
		token        bool
		wantStatus   int
		checkRequest bool
	}{
		{name: "create", method: http.MethodPost, path: "/tarefas", body: `{"titulo":"Contrato","descricao":"validar"}`, token: true, wantStatus: http.StatusCreated, checkRequest: true},
		{name: "create without description", method: http.MethodPost, path: "/tarefas", body: `{"titulo":"Sem descrição"}`, token: true, wantStatus: http.StatusCreated, checkRequest: true},
		{name: "create blank title", method: http.MethodPost, path: "/tarefas", body: `{"titulo":" "}`, token: true, wantStatus: http.StatusBadRequest, checkRequest: true},
		{name: "create malformed", method: http.MethodPost, path: "/tarefas", body: `{"titulo"`, token: true, wantStatus: http.StatusBadRequest},
		{name: "list", method: http.MethodGet, path: "/tarefas", token: true, wantStatus: http.StatusOK, checkRequest: true},
		{name: "list filtered", method: http.MethodGet, path: "/tarefas?concluida=false", token: true, wantStatus: http.StatusOK, checkRequest: true},
		{name: "list bad filter", method: http.MethodGet, path: "/tarefas?concluida=talvez", token: true, wantStatus: http.StatusBadRequest, checkRequest: true},
		{name: "list unauthorized", method: http.MethodGet, path: "/tarefas", wantStatus: http.StatusUnauthorized},
		{name: "get", method: http.MethodGet, path: "/tarefas/1", token: true, wantStatus: http.StatusOK, checkRequest: true},
		{name: "get invalid id", method: http.MethodGet, path: "/tarefas/um", token: true, wantStatus: http.StatusBadRequest, checkRequest: true},
		{name: "update", method: http.MethodPut, path: "/tarefas/1", body: `{"titulo":"Contrato","concluida":true}`, token: true, wantStatus: http.StatusOK, checkRequest: true},
		{name: "update missing", method: http.MethodPut, path: "/tarefas/999", body: `{"titulo":"x"}`, token: true, wantStatus: http.StatusNotFound, checkRequest: true},
		{name: "delete", method: http.MethodDelete, path: "/tarefas/2", token: true, wantStatus: http.StatusNoContent, checkRequest: true},
		{name: "delete missing", method: http.MethodDelete, path: "/tarefas/2", token: true, wantStatus: http.StatusNotFound, checkRequest: true},
		{name: "hello", method: http.MethodGet, path: "/hello", wantStatus: http.StatusOK, checkRequest: true},
		{name: "status", method: http.MethodGet, path: "/status", wantStatus: http.StatusOK, checkRequest: true},
		{name: "echo", method: http.MethodPost, path: "/echo", body: `{"mensagem":"oi"}`, wantStatus: http.StatusOK, checkRequest: true},
		{name: "greeting", method: http.MethodGet, path: "/saudacao/Ana", wantStatus: http.StatusOK, checkRequest: true},
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK, checkRequest: true},
		{name: "readyz", method: http.MethodGet, path: "/readyz", wantStatus: http.StatusOK, checkRequest: true},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, checkRequest: true},
	}

	// Cases share one database and run in order.
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, contractBaseURL+tc.path, body)
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token {
				req.Header.Set("Authorization", testutil.Token)
			}

			route, pathParams, err := specRouter.FindRoute(req)
			require.NoError(t, err, "route is not documented")

			reqInput := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if tc.checkRequest {
				require.NoError(t, openapi3filter.ValidateRequest(ctx, reqInput))
				// Validation consumed the body; replay it for the handler.
				if tc.body != "" {
					req.Body = io.NopCloser(strings.NewReader(tc.body))
				}
			}

			rec := httptest.NewRecorder()
			api.router.ServeHTTP(rec, req)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			respInput := &openapi3filter.ResponseValidationInput{
				RequestValidationInput: reqInput,
				Status:                 rec.Code,
				Header:                 rec.Header(),
				Options:                &openapi3filter.Options{IncludeResponseStatus: true},
			}
			respInput.SetBodyBytes(rec.Body.Bytes())
			require.NoError(t, openapi3filter.ValidateResponse(ctx, respInput))
		})
	}
}
