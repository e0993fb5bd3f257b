package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goliatone/go-synapse/outcome"
	"github.com/goliatone/go-synapse/pkg/di"
	"github.com/goliatone/go-synapse/usecase"
	"github.com/spf13/cobra"
)

func emit[T any](o outcome.Outcome[T]) error {
	if err := o.Err(); err != nil {
		return err
	}
	return newPrinter().print(o.GetOrNil())
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Read users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return emit(app.GetUser.Execute(ctx, args[0]))
			})
		},
	})
	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Read and update profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <user-id>",
		Short: "Get the profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return emit(app.GetProfile.Execute(ctx, args[0]))
			})
		},
	})

	var bio, website, location string
	set := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Update the profile fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				current := app.GetProfile.Execute(ctx, args[0])
				if err := current.Err(); err != nil {
					return err
				}
				profile := *current.GetOrNil()

				flags := cmd.Flags()
				if flags.Changed("bio") {
					profile.Bio = &bio
				}
				if flags.Changed("website") {
					profile.Website = &website
				}
				if flags.Changed("location") {
					profile.Location = &location
				}
				return emit(app.UpdateProfile.Execute(ctx, profile))
			})
		},
	}
	set.Flags().StringVar(&bio, "bio", "", "Profile bio")
	set.Flags().StringVar(&website, "website", "", "Profile website URL")
	set.Flags().StringVar(&location, "location", "", "Profile location")
	cmd.AddCommand(set)

	return cmd
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Read posts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a post by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return emit(app.GetPost.Execute(ctx, args[0]))
			})
		},
	})
	return cmd
}

func uploadCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}
			return withApp(cmd, func(ctx context.Context, app *di.App) error {
				return emit(app.UploadImage.Execute(ctx, usecase.UploadImageParams{Data: data, Name: name}))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Object name in the bucket (defaults to the file name)")
	return cmd
}
