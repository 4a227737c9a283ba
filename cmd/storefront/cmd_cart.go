package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/types"
)

func (c *cli) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Load the cart, merging a guest cart after login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.cart.Load(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().cartView(view)
		},
	}

	var size string
	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			if _, err := a.cart.Load(ctx); err != nil {
				return err
			}
			product, err := a.page.Get(ctx, types.ID(args[0]))
			if err != nil {
				return err
			}
			view, err := a.page.AddToCart(ctx, product, size, qty)
			if err != nil {
				return err
			}
			return c.printer().cartView(view)
		},
	}
	add.Flags().StringVar(&size, "size", "", "size to add, required when the product lists sizes")
	add.Flags().IntVar(&qty, "qty", 1, "quantity to add")

	update := &cobra.Command{
		Use:   "update <line-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number, got %q", args[1])
			}
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			if _, err := a.cart.Load(ctx); err != nil {
				return err
			}
			view, err := a.cart.UpdateQuantity(ctx, types.ID(args[0]), quantity)
			if err != nil {
				return err
			}
			return c.printer().cartView(view)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			if _, err := a.cart.Load(ctx); err != nil {
				return err
			}
			view, err := a.cart.Remove(ctx, types.ID(args[0]))
			if err != nil {
				return err
			}
			return c.printer().cartView(view)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			if _, err := a.cart.Load(ctx); err != nil {
				return err
			}
			view, err := a.cart.Clear(ctx)
			if err != nil {
				return err
			}
			return c.printer().cartView(view)
		},
	}

	cmd.AddCommand(show, add, update, remove, clearCmd)
	return cmd
}
