package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notes/tarefas/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Gera tokens de acesso para o servidor",
	}
	cmd.AddCommand(newTokenGenerateCmd(), newTokenHashCmd())
	return cmd
}

func newTokenGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Gera um token aleatório e o hash Argon2id para AUTH_TOKEN_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			generated, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TAREFAS_TOKEN=%s\n", generated.Plaintext)
			fmt.Fprintf(out, "AUTH_TOKEN_HASH=%s\n", generated.Hash)
			return nil
		},
	}
}

func newTokenHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Lê um token da entrada padrão e imprime o hash Argon2id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			token := strings.TrimSpace(line)
			if token == "" {
				if err != nil {
					return fmt.Errorf("token ausente na entrada padrão: %w", err)
				}
				return errors.New("token ausente na entrada padrão")
			}

			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
