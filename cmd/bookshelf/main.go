// @title           Bookshelf API
// @version         1.0
// @description     Two shelves of books: add, move between shelves, edit and delete with confirmation dialogs.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"bookshelf/internal/app"
	"bookshelf/internal/config"
	"bookshelf/internal/controller"
	"bookshelf/internal/logging"
	"bookshelf/internal/terminal"

	_ "bookshelf/docs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds what PersistentPreRunE prepared for the subcommands.
type cli struct {
	cfg      config.Config
	logger   *zap.Logger
	logLevel string
	in       io.Reader
	out      io.Writer
	styles   terminal.Styles
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		// notices already told the user
		if !controller.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, styles: terminal.DefaultStyles()}
	root := &cobra.Command{
		Use:   "bookshelf",
		Short: "Keep track of the books you are reading and the ones you finished",
		Long: `bookshelf keeps two shelves of books: "Not finished reading" and
"Finished reading". Books can be added, moved between shelves, edited and
removed from the terminal, or through the HTTP API started by "bookshelf serve".

Storage, logging and the API are configured through environment variables,
or a YAML file named by CONFIG_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.App.LogLevel
			if c.logLevel != "" {
				level = c.logLevel
			} else if cmd.Name() != "serve" {
				// keep the terminal for notices unless asked otherwise
				level = "warn"
			}
			logger, err := logging.New(level, cfg.App.Env)
			if err != nil {
				return err
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(c),
		newAddCmd(c),
		newListCmd(c),
		newToggleCmd(c),
		newRemoveCmd(c),
		newEditCmd(c),
	)
	return root
}

// open starts a session that prints notices to the terminal.
func (c *cli) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	opts = append([]app.Option{app.WithNotifier(terminal.NewNotifier(c.out, c.styles))}, opts...)
	return app.New(ctx, c.cfg, c.logger, opts...)
}
