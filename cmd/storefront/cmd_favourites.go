package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/favourites"
	"github.com/angelmondragon/storefront/pkg/types"
)

func (c *cli) favouritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favs"},
		Short:   "List and edit favourites",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List local and account favourites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := a.favourites.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().productList(entries)
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to favourites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			id := types.ID(args[0])
			name := id.String()
			if product, err := a.page.Get(ctx, id); err == nil {
				name = product.Name
			}
			return a.favourites.Add(ctx, id, name)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from favourites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			return a.favourites.Remove(cmd.Context(), types.ID(args[0]))
		},
	}

	recommend := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest products based on favourites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := a.favourites.Recommend(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().print(rec, func(tw *tabwriter.Writer) {
				printRecommendation(tw, rec)
			})
		},
	}

	cmd.AddCommand(list, add, remove, recommend)
	return cmd
}

func printRecommendation(tw *tabwriter.Writer, rec favourites.Recommendation) {
	fmt.Fprintln(tw, rec.Title)
	for _, p := range rec.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Price.Display())
	}
}
