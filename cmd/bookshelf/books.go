package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"bookshelf/internal/app"
	"bookshelf/internal/controller"
	"bookshelf/internal/service"
	"bookshelf/internal/terminal"

	"github.com/spf13/cobra"
)

func newAddCmd(c *cli) *cobra.Command {
	var in controller.AddInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Example: `  bookshelf add --title Dune --author "Frank Herbert" --year 1965
  bookshelf add --title Emma --author "Jane Austen" --year 1815 --complete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), c, func(ctx context.Context, a *app.App) error {
				b, err := a.Controller.SubmitAdd(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, c.styles.Muted.Render(fmt.Sprintf("id %d", b.ID)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "book author")
	cmd.Flags().StringVar(&in.Year, "year", "", "publication year")
	cmd.Flags().BoolVar(&in.IsComplete, "complete", false, "put the book on the finished shelf")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var search, output string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show both shelves",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := terminal.NewSink(c.out, c.styles, true)
			return withApp(cmd.Context(), c, func(ctx context.Context, a *app.App) error {
				a.Controller.Search(search)
				shelves, _ := sink.Last()
				return terminal.WriteShelves(c.out, shelves, output, c.styles)
			}, app.WithSink(sink))
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only books whose title contains this text")
	cmd.Flags().StringVarP(&output, "output", "o", terminal.FormatTable, "output format: table, json or yaml")
	return cmd
}

func newToggleCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Move a book to the other shelf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), c, func(ctx context.Context, a *app.App) error {
				_, err := a.Controller.Toggle(ctx, id)
				return notFound(err, id)
			})
		},
	}
}

func newRemoveCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a book after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), c, func(ctx context.Context, a *app.App) error {
				d, err := a.Controller.RequestDelete(id)
				if err != nil {
					return notFound(err, id)
				}
				if yes {
					_, _, err = a.Controller.Respond(ctx, d.Token, controller.Answer{Accept: true})
					return err
				}
				return a.Controller.Run(ctx, d, terminal.NewConfirmer(c.in, c.out, c.styles))
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var title, author, year string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a book's title, author and year",
		Long: `Without flags, edit asks for the title, author and year in turn, each
prefilled with the current value. Press Enter to keep a value; end the input
(Ctrl-D) to cancel without changing anything.

With any of --title, --author or --year the change is applied directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			return withApp(cmd.Context(), c, func(ctx context.Context, a *app.App) error {
				if flags.Changed("title") || flags.Changed("author") || flags.Changed("year") {
					var in controller.EditInput
					if flags.Changed("title") {
						in.Title = &title
					}
					if flags.Changed("author") {
						in.Author = &author
					}
					if flags.Changed("year") {
						in.Year = &year
					}
					_, err := a.Controller.Edit(ctx, id, in)
					return notFound(err, id)
				}
				d, err := a.Controller.RequestEdit(id)
				if err != nil {
					return notFound(err, id)
				}
				return a.Controller.Run(ctx, d, terminal.NewConfirmer(c.in, c.out, c.styles))
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().StringVar(&year, "year", "", "new year")
	return cmd
}

// withApp runs fn inside one session and closes it afterwards.
func withApp(ctx context.Context, c *cli, fn func(context.Context, *app.App) error, opts ...app.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.open(ctx, opts...)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	return errors.Join(runErr, a.Close(ctx))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// notFound names the id; the controller keeps missing ids out of its notices.
func notFound(err error, id int64) error {
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("no book with id %d", id)
	}
	return err
}
