package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/paging"
	"github.com/goliatone/go-synapse/pkg/di"
	"github.com/goliatone/go-synapse/remote"
	"github.com/goliatone/go-synapse/usecase"
	"github.com/spf13/cobra"
)

type listFlags struct {
	from int
	size int
	all  bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.from, "from", 0, "Position of the first row")
	cmd.Flags().IntVar(&f.size, "size", 0, "Rows per page (defaults to paging.page_size)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Follow next keys until the list ends")
}

// listPage prints one page, or every page from f.from when f.all is set.
func listPage[T any](ctx context.Context, app *di.App, src *paging.OffsetSource[T], f listFlags) error {
	size := f.size
	if size <= 0 {
		size = app.PageSize()
	}

	if !f.all {
		page, err := src.Load(ctx, paging.LoadParams[int]{Key: &f.from, LoadSize: size})
		if err != nil {
			return err
		}
		return newPrinter().print(page)
	}

	rows := []T{}
	for page, err := range src.Pages(ctx, f.from, size) {
		if err != nil {
			return err
		}
		rows = append(rows, page.Data...)
	}
	return newPrinter().print(rows)
}

func feedCmd() *cobra.Command {
	var (
		flags  listFlags
		author string
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				src := app.Feed
				if author != "" {
					src = app.UserPosts(author)
				}
				return listPage(ctx, app, src, flags)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&author, "author", "", "Only list posts by this user id")
	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read and send chat messages",
	}

	var flags listFlags
	list := &cobra.Command{
		Use:   "list <chat-id>",
		Short: "List the messages of a chat in send order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return listPage(ctx, app, app.ChatMessages(args[0]), flags)
			})
		},
	}
	flags.register(list)

	var sender, text string
	send := &cobra.Command{
		Use:   "send <chat-id>",
		Short: "Send a text message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return emit(app.SendMessage.Execute(ctx, usecase.SendMessageParams{
					ChatID:   args[0],
					SenderID: sender,
					Text:     text,
				}))
			})
		},
	}
	send.Flags().StringVar(&sender, "from", "", "Sender user id")
	send.Flags().StringVar(&text, "text", "", "Message text")
	_ = send.MarkFlagRequired("from")

	cmd.AddCommand(list, send)
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing entity tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				if err := remote.CreateSchema(ctx, app.DB); err != nil {
					return err
				}
				logging.Op().Info("schema ready", "driver", app.Config.Database.Driver)
				return nil
			})
		},
	}
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				mux := http.NewServeMux()
				mux.Handle("/metrics", app.Metrics.Handler())

				server := &http.Server{
					Addr:              app.Config.Metrics.Addr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					logging.Op().Info("metrics listening", "addr", server.Addr)
					errCh <- server.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				}
			})
		},
	}
}
