package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes/tarefas/internal/auth"
	"github.com/notes/tarefas/internal/client"
	"github.com/notes/tarefas/internal/config"
	"github.com/notes/tarefas/internal/handler"
	"github.com/notes/tarefas/internal/metrics"
	"github.com/notes/tarefas/internal/repository"
	"github.com/notes/tarefas/internal/server"
	"github.com/notes/tarefas/internal/service"
	"github.com/notes/tarefas/internal/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := repository.New(context.Background(), "sqlite::memory:", config.DB{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := service.NewTaskService(repo, nil, metrics.NewNoop(), logger)
	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		Logger:   logger,
		Tasks:    handler.NewTaskHandler(svc, nil, logger),
		Util:     handler.NewUtilHandler(),
		Verifier: auth.NewPlainVerifier(testutil.Token),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_TaskCommands(t *testing.T) {
	srv := newTestServer(t)
	global := []string{"--server", srv.URL, "--token", testutil.Token}

	out, err := execute(t, "", append([]string{"create", "--titulo", "Regar plantas", "--descricao", "samambaia"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Enviando requisição POST para: "+srv.URL+"/tarefas")
	assert.Contains(t, out, "Código de resposta: 201")
	assert.Contains(t, out, `"titulo":"Regar plantas"`)

	out, err = execute(t, "", append([]string{"update", "1", "--titulo", "Regar plantas", "--concluida"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Código de resposta: 200")
	assert.Contains(t, out, `"concluida":true`)
	assert.Contains(t, out, `"descricao":null`)

	out, err = execute(t, "", append([]string{"list", "--concluida=false"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Corpo da resposta: []")

	out, err = execute(t, "", append([]string{"get", "1"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"id":1`)

	out, err = execute(t, "", append([]string{"delete", "1"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Código de resposta: 204")

	out, err = execute(t, "", append([]string{"get", "1"}, global...)...)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, out, "Código de resposta: 404")
	assert.Contains(t, out, "Tarefa não encontrada com o ID: 1")
}

func TestCLI_Status(t *testing.T) {
	srv := newTestServer(t)

	out, err := execute(t, "", "status", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Código de resposta: 200")
	assert.Contains(t, out, `"status":"ok"`)
}

func TestCLI_EnvironmentDefaults(t *testing.T) {
	srv := newTestServer(t)
	t.Setenv(envServer, srv.URL)
	t.Setenv(envToken, testutil.Token)

	out, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Código de resposta: 200")
}

func TestCLI_ArgumentErrors(t *testing.T) {
	_, err := execute(t, "", "get", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID inválido")

	_, err = execute(t, "", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titulo")

	_, err = execute(t, "", "list", "--server", "localhost:7000")
	assert.ErrorIs(t, err, client.ErrInvalidBaseURL)
}

func TestCLI_Unreachable(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	out, err := execute(t, "", "status", "--server", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha ao conectar com o servidor")
	assert.Empty(t, out)
}

func TestCLI_TokenGenerate(t *testing.T) {
	out, err := execute(t, "", "token", "generate")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	token, ok := strings.CutPrefix(lines[0], "TAREFAS_TOKEN=")
	require.True(t, ok)
	hash, ok := strings.CutPrefix(lines[1], "AUTH_TOKEN_HASH=")
	require.True(t, ok)

	valid, err := auth.VerifyToken(token, hash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCLI_TokenHash(t *testing.T) {
	out, err := execute(t, "vasco-da-gama\n", "token", "hash")
	require.NoError(t, err)

	valid, err := auth.VerifyToken("vasco-da-gama", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.True(t, valid)

	_, err = execute(t, "", "token", "hash")
	assert.Error(t, err)
}
