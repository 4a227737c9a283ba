package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/types"
)

func (c *cli) productsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			all, err := a.page.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().productList(all)
		},
	}

	var related int
	show := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product with its sizes and related products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			product, err := a.page.Get(ctx, types.ID(args[0]))
			if err != nil {
				return err
			}
			rel, err := a.page.Related(ctx, product, related)
			if err != nil {
				a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "related products unavailable")
				rel = []products.Product{}
			}
			return c.printer().productDetail(productDetail{
				Product: product,
				Sizes:   product.SizeOptions(),
				Related: rel,
			})
		},
	}
	show.Flags().IntVar(&related, "related", products.DefaultRelatedLimit, "maximum related products")

	sizes := &cobra.Command{
		Use:   "sizes <product-id>",
		Short: "List the sizes a product is sold in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			product, err := a.page.Get(cmd.Context(), types.ID(args[0]))
			if err != nil {
				return err
			}
			options := product.SizeOptions()
			return c.printer().print(options, func(tw *tabwriter.Writer) {
				if len(options) == 0 {
					fmt.Fprintln(tw, "One size")
					return
				}
				for _, s := range options {
					fmt.Fprintln(tw, s)
				}
			})
		},
	}

	var size string
	var qty int
	buy := &cobra.Command{
		Use:   "buy <product-id>",
		Short: "Put a product in the server cart and continue to checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			product, err := a.page.Get(ctx, types.ID(args[0]))
			if err != nil {
				return err
			}
			ok, err := a.page.BuyNow(ctx, product, size, qty)
			if err != nil || !ok {
				return err
			}
			summary, err := a.checkout.Summary(ctx)
			if err != nil {
				return err
			}
			return c.printer().summary(summary)
		},
	}
	buy.Flags().StringVar(&size, "size", "", "size to buy, required when the product lists sizes")
	buy.Flags().IntVar(&qty, "qty", 1, "quantity to buy")

	cmd.AddCommand(list, show, sizes, buy)
	return cmd
}
