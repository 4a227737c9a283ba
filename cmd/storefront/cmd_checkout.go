package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func (c *cli) checkoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review the order and pay with M-Pesa",
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show the order summary for the server cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.checkout.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().summary(s)
		},
	}

	var phone, shippingFile string
	var shipping checkout.ShippingDetails
	pay := &cobra.Command{
		Use:   "pay",
		Short: "Send an M-Pesa STK push for the cart total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			details := shipping
			if shippingFile != "" {
				loaded, err := readShippingFile(shippingFile)
				if err != nil {
					return err
				}
				details = mergeShipping(loaded, shipping)
			}
			if details.Phone == "" {
				details.Phone = phone
			}

			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.checkout.PlaceOrder(cmd.Context(), phone, details)
			if err != nil {
				return err
			}
			return c.printer().message(msg)
		},
	}
	pay.Flags().StringVar(&phone, "phone", "", "M-Pesa phone number (07XXXXXXXX or 2547XXXXXXXX)")
	pay.Flags().StringVar(&shippingFile, "shipping-file", "", "yaml file with name, address, city, postalCode and phone")
	pay.Flags().StringVar(&shipping.Name, "name", "", "recipient name")
	pay.Flags().StringVar(&shipping.Address, "address", "", "street address")
	pay.Flags().StringVar(&shipping.City, "city", "", "city")
	pay.Flags().StringVar(&shipping.PostalCode, "postal-code", "", "postal code")
	pay.Flags().StringVar(&shipping.Phone, "shipping-phone", "", "contact phone, defaults to --phone")

	cmd.AddCommand(summary, pay)
	return cmd
}

func readShippingFile(path string) (checkout.ShippingDetails, error) {
	var details checkout.ShippingDetails
	raw, err := os.ReadFile(path)
	if err != nil {
		return details, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read shipping file")
	}
	if err := yaml.Unmarshal(raw, &details); err != nil {
		return details, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping file is not valid yaml")
	}
	return details, nil
}

// mergeShipping lets flags override fields loaded from a file.
func mergeShipping(base, override checkout.ShippingDetails) checkout.ShippingDetails {
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.Address != "" {
		base.Address = override.Address
	}
	if override.City != "" {
		base.City = override.City
	}
	if override.PostalCode != "" {
		base.PostalCode = override.PostalCode
	}
	if override.Phone != "" {
		base.Phone = override.Phone
	}
	return base
}
