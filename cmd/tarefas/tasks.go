package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/notes/tarefas/internal/handler/dto"
	"github.com/notes/tarefas/internal/model"
)

func newListCmd(opts *options) *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as tarefas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			var filter *bool
			if cmd.Flags().Changed("concluida") {
				filter = &completed
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, resp, err := c.List(ctx, filter)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}

	cmd.Flags().BoolVar(&completed, "concluida", false, "filtra por tarefas concluídas (true) ou pendentes (false)")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Busca uma tarefa pelo ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, resp, err := c.Get(ctx, id)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Cria uma nova tarefa",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, resp, err := c.Create(ctx, dto.CreateTaskRequest{
				Titulo:    title,
				Descricao: model.StringPtr(description),
			})
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}

	cmd.Flags().StringVar(&title, "titulo", "", "título da tarefa")
	cmd.Flags().StringVar(&description, "descricao", "", "descrição da tarefa")
	_ = cmd.MarkFlagRequired("titulo")
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	var (
		title       string
		description string
		completed   bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Substitui título, descrição e conclusão de uma tarefa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, resp, err := c.Update(ctx, id, dto.UpdateTaskRequest{
				Titulo:    title,
				Descricao: model.StringPtr(description),
				Concluida: completed,
			})
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}

	cmd.Flags().StringVar(&title, "titulo", "", "título da tarefa")
	cmd.Flags().StringVar(&description, "descricao", "", "descrição da tarefa (vazio remove)")
	cmd.Flags().BoolVar(&completed, "concluida", false, "marca a tarefa como concluída")
	_ = cmd.MarkFlagRequired("titulo")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove uma tarefa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := c.Delete(ctx, id)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Consulta o status do servidor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, resp, err := c.Status(ctx)
			return printResponse(cmd.OutOrStdout(), resp, err)
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ID inválido %q. Use um numero inteiro!", raw)
	}
	return id, nil
}
