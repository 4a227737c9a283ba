package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/products"
)

type printer struct {
	w      io.Writer
	format string
}

// print renders v as json or yaml, or calls table for the table format.
func (p printer) print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func (p printer) cartView(view cart.View) error {
	return p.print(view, func(tw *tabwriter.Writer) {
		if view.Empty() {
			fmt.Fprintln(tw, "Your cart is empty.")
			return
		}
		fmt.Fprintln(tw, "ID\tPRODUCT\tSIZE\tQTY\tPRICE\tLINE TOTAL")
		for _, l := range view.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", l.ID, l.Name, dashIfEmpty(l.Size), l.Quantity, l.Price.Display(), l.Total().Display())
		}
		fmt.Fprintf(tw, "\t\t\t%d\tSUBTOTAL\t%s\n", view.ItemCount, view.Subtotal.Display())
		if view.MergePending {
			fmt.Fprintln(tw, "(guest cart not yet merged with your account)")
		}
	})
}

func (p printer) productList(list []products.Product) error {
	return p.print(list, func(tw *tabwriter.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(tw, "No products found.")
			return
		}
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSIZES")
		for _, prod := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", prod.ID, prod.Name, dashIfEmpty(prod.Category), prod.Price.Display(), dashIfEmpty(prod.Sizes))
		}
	})
}

type productDetail struct {
	Product products.Product   `json:"product" yaml:"product"`
	Sizes   []string           `json:"sizes" yaml:"sizes"`
	Related []products.Product `json:"related" yaml:"related"`
}

func (p printer) productDetail(d productDetail) error {
	return p.print(d, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID\t%s\n", d.Product.ID)
		fmt.Fprintf(tw, "Name\t%s\n", d.Product.Name)
		fmt.Fprintf(tw, "Price\t%s\n", d.Product.Price.Display())
		fmt.Fprintf(tw, "Category\t%s\n", dashIfEmpty(d.Product.Category))
		fmt.Fprintf(tw, "Sizes\t%s\n", dashIfEmpty(strings.Join(d.Sizes, ", ")))
		if d.Product.Description != "" {
			fmt.Fprintf(tw, "Description\t%s\n", d.Product.Description)
		}
		for i, r := range d.Related {
			label := ""
			if i == 0 {
				label = "Related"
			}
			fmt.Fprintf(tw, "%s\t%s %s (%s)\n", label, r.ID, r.Name, r.Price.Display())
		}
	})
}

func (p printer) summary(s checkout.Summary) error {
	return p.print(s, func(tw *tabwriter.Writer) {
		if s.Empty() {
			fmt.Fprintln(tw, "Your cart is empty.")
			return
		}
		fmt.Fprintln(tw, "PRODUCT\tSIZE\tQTY\tLINE TOTAL")
		for _, l := range s.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.Name, dashIfEmpty(l.Size), l.Quantity, l.Total().Display())
		}
		fmt.Fprintf(tw, "\t\tSubtotal\t%s\n", s.Subtotal.Display())
		fmt.Fprintf(tw, "\t\tShipping\t%s\n", s.Shipping.Display())
		fmt.Fprintf(tw, "\t\tTotal\t%s\n", s.Total.Display())
	})
}

type messageOutput struct {
	Message string `json:"message" yaml:"message"`
}

func (p printer) message(msg string) error {
	return p.print(messageOutput{Message: msg}, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, msg)
	})
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
