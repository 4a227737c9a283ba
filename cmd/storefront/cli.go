package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/pkg/config"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// cli holds the global flags and the lazily built session.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	output      string
	dumpMetrics bool

	loadConfig func() (*config.Config, error)
	notes      *trackingNotifier
	session    *app
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: config.Load,
		notes: &trackingNotifier{next: notifications.Multi{
			notifications.NewWriterNotifier(stderr),
		}},
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront cart, favourites and checkout client",
		Long:          "storefront drives the fashion storefront API from the terminal. Each invocation is one page session: the guest cart and favourites live in the local store and are reconciled with the server when you are logged in.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch c.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			}
			return fmt.Errorf("unknown output format %q (want table|json|yaml)", c.output)
		},
	}
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "output format: table|json|yaml")
	root.PersistentFlags().BoolVar(&c.dumpMetrics, "metrics", false, "print client metrics to stderr on exit")

	root.AddCommand(
		c.cartCommand(),
		c.favouritesCommand(),
		c.productsCommand(),
		c.authCommand(),
		c.checkoutCommand(),
	)
	return root
}

// app builds the session on first use.
func (c *cli) app(ctx context.Context) (*app, error) {
	if c.session != nil {
		return c.session, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg, c.stderr, c.notes)
	if err != nil {
		return nil, err
	}
	c.notes.next = append(c.notes.next, notifications.NewLogNotifier(a.logg))
	c.session = a
	return a, nil
}

func (c *cli) reported() bool {
	return c.notes.reported()
}

// close dumps metrics when asked and releases the session.
func (c *cli) close(_ context.Context) error {
	if c.session == nil {
		return nil
	}
	if c.dumpMetrics {
		if err := c.writeMetrics(c.stderr); err != nil {
			fmt.Fprintln(c.stderr, "warning: could not write metrics:", err)
		}
	}
	err := c.session.close()
	c.session = nil
	return err
}

func (c *cli) writeMetrics(w io.Writer) error {
	families, err := c.session.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) printer() printer {
	return printer{w: c.stdout, format: strings.ToLower(c.output)}
}
