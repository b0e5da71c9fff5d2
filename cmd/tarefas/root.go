package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/notes/tarefas/internal/client"
)

const (
	envServer = "TAREFAS_SERVER"
	envToken  = "TAREFAS_TOKEN"
)

type options struct {
	server  string
	token   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "tarefas",
		Short:         "Cliente de linha de comando da API de Tarefas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr(envServer, client.DefaultBaseURL), "URL base do servidor (env "+envServer+")")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(envToken), "token de autenticação (env "+envToken+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "tempo limite por requisição")

	cmd.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newStatusCmd(opts),
		newTokenCmd(),
	)

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) client() (*client.Client, error) {
	return client.New(o.server, o.token)
}

// printResponse writes the exchange the way an operator reads it. A non-2xx
// status is printed, then returned as an error so the exit code reflects it.
func printResponse(w io.Writer, resp *client.Response, err error) error {
	if resp == nil {
		if err == nil {
			return nil
		}
		return fmt.Errorf("falha ao conectar com o servidor: %w", err)
	}

	fmt.Fprintf(w, "Enviando requisição %s para: %s\n", resp.Method, resp.URL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Resposta do Servidor ===")
	fmt.Fprintf(w, "Código de resposta: %d\n", resp.StatusCode)
	fmt.Fprintf(w, "Corpo da resposta: %s\n", compact(resp.Body))

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return err
}

// compact renders JSON bodies on one line and anything else as-is.
func compact(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err == nil {
		return buf.String()
	}
	return string(bytes.TrimSpace(body))
}
