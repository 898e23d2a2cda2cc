package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/monteirok/popmart-tracker/internal/bootstrap"
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// openOrders loads the configured store behind a state manager.
func openOrders(ctx context.Context) (*state.Manager, func() error, error) {
	store, err := bootstrap.OpenStore(ctx, cfg, logger, nil)
	if err != nil {
		return nil, nil, err
	}
	return state.NewManager(store.Orders, state.WithLogger(logger)), store.Close, nil
}

func init() {
	var ordersCmd = &cobra.Command{
		Use:   "orders",
		Short: "Manage orders from scripts",
	}

	// List
	var listStatus string
	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := view.ParseFilter(listStatus)
			if err != nil {
				return err
			}
			orders, closeStore, err := openOrders(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := orders.Load(cmd.Context()); err != nil {
				return err
			}
			infra, err := bootstrap.BuildInfrastructure(cfg)
			if err != nil {
				return err
			}
			list := view.NewList(orders.Snapshot(), filter)
			return printOrders(cmd.OutOrStdout(), infra.Formatter, list)
		},
	}
	listCmd.Flags().StringVar(&listStatus, "status", "all", "only show orders with this status")
	ordersCmd.AddCommand(listCmd)

	// Add
	var form view.Form
	var addCmd = &cobra.Command{
		Use:   "add",
		Short: "Add an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := form.Draft()
			if err != nil {
				return err
			}
			orders, closeStore, err := openOrders(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			created, err := orders.Add(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%s added with id %s\n", created.OrderNumber, created.ID)
			return nil
		},
	}
	defaults := view.NewForm()
	addCmd.Flags().StringVar(&form.OrderNumber, "number", "", "order number")
	addCmd.Flags().StringVar(&form.ProductName, "product", "", "product name")
	addCmd.Flags().StringVar(&form.Price, "price", "", "price, e.g. 12.99")
	addCmd.Flags().StringVar(&form.OrderDate, "date", defaults.OrderDate, "order date ("+order.DateLayout+")")
	addCmd.Flags().StringVar(&form.ProductImage, "image", "", "product image URL")
	addCmd.Flags().StringVar(&form.TrackingNumber, "tracking", "", "tracking number")
	addCmd.Flags().StringVar(&form.EstimatedDelivery, "eta", "", "estimated delivery date ("+order.DateLayout+")")
	addCmd.Flags().StringVar(&form.Status, "status", defaults.Status, "order status")
	_ = addCmd.MarkFlagRequired("number")
	_ = addCmd.MarkFlagRequired("product")
	_ = addCmd.MarkFlagRequired("price")
	ordersCmd.AddCommand(addCmd)

	// Status
	var statusCmd = &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := order.ParseStatus(args[1])
			if err != nil {
				return err
			}
			orders, closeStore, err := openOrders(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			updated, err := orders.UpdateStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%s is now %s\n", updated.OrderNumber, updated.Status.Label())
			return nil
		},
	}
	ordersCmd.AddCommand(statusCmd)

	// Delete
	var deleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, closeStore, err := openOrders(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := orders.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s deleted\n", args[0])
			return nil
		},
	}
	ordersCmd.AddCommand(deleteCmd)

	// Export
	var exportFormat string
	var exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export all orders as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, closeStore, err := openOrders(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := orders.Load(cmd.Context()); err != nil {
				return err
			}
			return exportOrders(cmd.OutOrStdout(), exportFormat, orders.Snapshot().Orders)
		},
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or yaml")
	ordersCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(ordersCmd)
}

func printOrders(out io.Writer, formatter *view.Formatter, list view.List) error {
	if list.Empty != nil {
		fmt.Fprintf(out, "%s\n%s\n", list.Empty.Title, list.Empty.Body)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORDER\tPRODUCT\tSTATUS\tORDERED\tPRICE\tTRACKING")
	for _, o := range list.Orders {
		card := formatter.Card(o)
		tracking := "-"
		if card.Tracking != nil {
			tracking = card.Tracking.Number
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderNumber, o.ProductName, card.StatusLabel, card.OrderDate, card.Price, tracking)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	chips := make([]string, 0, len(list.Chips))
	for _, c := range list.Chips {
		chips = append(chips, c.Label)
	}
	fmt.Fprintf(out, "\n%s\n", strings.Join(chips, "  "))
	return nil
}

func exportOrders(out io.Writer, format string, orders []order.Order) error {
	if orders == nil {
		orders = []order.Order{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(orders)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(orders); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
