package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Manage catalog items and stock"}

	var in usecase.CreateItemInput
	var price string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				unitPrice, err := parseDecimal("price", price)
				if err != nil {
					return nil, err
				}
				in.UnitPrice = unitPrice
				return svc.catalog.CreateItem(ctx, in, actor)
			})
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "Product name")
	add.Flags().StringVar(&in.Description, "description", "", "Description")
	add.Flags().StringVar(&price, "price", "0", "Unit price")
	add.Flags().Int64Var(&in.Quantity, "quantity", 0, "Units on hand")
	add.Flags().StringVar(&in.InvoiceNumber, "invoice", "", "Supplier invoice number")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.catalog.ListItems(ctx, limit, offset, actor)
			})
		},
	}
	pageFlags(list, &limit, &offset)

	adjust := &cobra.Command{
		Use:   "adjust <item-id> <quantity>",
		Short: "Overwrite the quantity on hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.catalog.AdjustStock(ctx, args[0], qty, actor)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item no record refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return map[string]string{"deleted": args[0]}, svc.catalog.DeleteItem(ctx, args[0], actor)
			})
		},
	}

	cmd.AddCommand(add, list, adjust, del)
	return cmd
}

func (c *cli) incomeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "income", Short: "Record and list income"}

	var in usecase.RecordIncomeInput
	var amount string
	var lines []string
	record := &cobra.Command{
		Use:   "record",
		Short: "Record an income, withdrawing stock for each --line item-id:quantity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseDecimal("amount", amount)
			if err != nil {
				return err
			}
			in.Amount = value
			in.Lines = in.Lines[:0]
			for _, l := range lines {
				id, qty, ok := strings.Cut(l, ":")
				if !ok {
					return fmt.Errorf("--line %q: want item-id:quantity", l)
				}
				in.Lines = append(in.Lines, usecase.IncomeLineInput{CatalogItemID: id, Quantity: qty})
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.RecordIncome(ctx, in, actor)
			})
		},
	}
	record.Flags().StringVar(&in.Title, "title", "", "Title")
	record.Flags().StringVar(&in.Description, "description", "", "Description")
	record.Flags().StringVar(&amount, "amount", "", "Amount received")
	record.Flags().StringVar(&in.Classification, "classification", string(domain.IncomeOperational), "operational or non_operational")
	record.Flags().StringVar(&in.Client, "client", "", "Client label")
	record.Flags().StringArrayVar(&lines, "line", nil, "Sold item as item-id:quantity (repeatable)")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List active income records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.ListIncome(ctx, limit, offset, actor)
			})
		},
	}
	pageFlags(list, &limit, &offset)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one income record, deleted or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.GetIncome(ctx, args[0], actor)
			})
		},
	}

	cmd.AddCommand(record, list, show)
	return cmd
}

func (c *cli) expenseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "expense", Short: "Record and list expenses"}

	var in usecase.RecordExpenseInput
	var lines []string
	record := &cobra.Command{
		Use:   "record",
		Short: "Record an expense, restocking each --line name:quantity:unit-price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Lines = in.Lines[:0]
			for _, l := range lines {
				line, err := parseExpenseLine(l)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, line)
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.RecordExpense(ctx, in, actor)
			})
		},
	}
	record.Flags().StringVar(&in.Title, "title", "", "Title")
	record.Flags().StringVar(&in.Description, "description", "", "Description")
	record.Flags().StringVar(&in.Classification, "classification", string(domain.ExpenseGeneral), "cost or expense")
	record.Flags().StringArrayVar(&lines, "line", nil, "Purchased item as name:quantity:unit-price (repeatable)")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List active expense records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.ListExpenses(ctx, limit, offset, actor)
			})
		},
	}
	pageFlags(list, &limit, &offset)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one expense record, deleted or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.transactions.GetExpense(ctx, args[0], actor)
			})
		},
	}

	cmd.AddCommand(record, list, show)
	return cmd
}

// parseExpenseLine splits on the last two colons so product names may contain one.
func parseExpenseLine(s string) (usecase.ExpenseLineInput, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return usecase.ExpenseLineInput{}, fmt.Errorf("--line %q: want name:quantity:unit-price", s)
	}
	n := len(parts)
	return usecase.ExpenseLineInput{
		Name:      strings.Join(parts[:n-2], ":"),
		Quantity:  parts[n-2],
		UnitPrice: parts[n-1],
	}, nil
}

func (c *cli) recordCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "record", Short: "Edit or delete income and expense records"}

	del := &cobra.Command{
		Use:   "delete <income|expense> <id>",
		Short: "Soft-delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := subjectType(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return map[string]string{"deleted": args[1]}, svc.transactions.SoftDelete(ctx, subject, args[1], actor)
			})
		},
	}

	var title, description, classification, client, amount string
	edit := &cobra.Command{
		Use:   "edit <income|expense> <id>",
		Short: "Edit header fields of a record; only the flags given are changed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := subjectType(args[0])
			if err != nil {
				return err
			}

			var changes domain.RecordChanges
			flags := cmd.Flags()
			if flags.Changed("title") {
				changes.Title = &title
			}
			if flags.Changed("description") {
				changes.Description = &description
			}
			if flags.Changed("classification") {
				changes.Classification = &classification
			}
			if flags.Changed("client") {
				changes.Client = &client
			}
			if flags.Changed("amount") {
				value, err := parseDecimal("amount", amount)
				if err != nil {
					return err
				}
				changes.Amount = &value
			}

			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return map[string]string{"edited": args[1]}, svc.transactions.Edit(ctx, subject, args[1], changes, actor)
			})
		},
	}
	edit.Flags().StringVar(&title, "title", "", "New title")
	edit.Flags().StringVar(&description, "description", "", "New description")
	edit.Flags().StringVar(&classification, "classification", "", "New classification")
	edit.Flags().StringVar(&client, "client", "", "New client label (income only)")
	edit.Flags().StringVar(&amount, "amount", "", "New amount (income only)")

	cmd.AddCommand(del, edit)
	return cmd
}

func (c *cli) payrollCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "payroll", Short: "Settle payroll"}

	var in usecase.SettleInput
	var hours, bonuses, deductions string
	settle := &cobra.Command{
		Use:   "settle",
		Short: "Settle one employee's period and book it as an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.HoursWorked, err = parseDecimal("hours", hours); err != nil {
				return err
			}
			if in.Bonuses, err = parseDecimal("bonuses", bonuses); err != nil {
				return err
			}
			if in.Deductions, err = parseDecimal("deductions", deductions); err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				settlement, expense, err := svc.payroll.Settle(ctx, in, actor)
				if err != nil {
					return nil, err
				}
				return map[string]any{"settlement": settlement, "expense": expense}, nil
			})
		},
	}
	settle.Flags().StringVar(&in.EmployeeID, "employee", "", "Employee user ID")
	settle.Flags().StringVar(&in.Period, "period", "", "Period label, e.g. 2024-05")
	settle.Flags().StringVar(&hours, "hours", "0", "Hours worked")
	settle.Flags().StringVar(&bonuses, "bonuses", "0", "Bonuses")
	settle.Flags().StringVar(&deductions, "deductions", "0", "Deductions")

	cmd.AddCommand(settle)
	return cmd
}

func (c *cli) quoteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "quote", Short: "Price jobs for clients"}

	var in usecase.QuoteInput
	var hours string
	var items []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Quote labor plus --item item-id:quantity materials without touching stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Hours, err = parseDecimal("hours", hours); err != nil {
				return err
			}
			in.Items = in.Items[:0]
			for _, it := range items {
				id, qtyText, ok := strings.Cut(it, ":")
				if !ok {
					return fmt.Errorf("--item %q: want item-id:quantity", it)
				}
				qty, err := parseQuantity(qtyText)
				if err != nil {
					return err
				}
				in.Items = append(in.Items, usecase.QuoteItemInput{CatalogItemID: id, Quantity: qty})
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.quotations.Quote(ctx, in, actor)
			})
		},
	}
	create.Flags().StringVar(&in.Client, "client", "", "Client name")
	create.Flags().StringVar(&hours, "hours", "0", "Estimated labor hours")
	create.Flags().StringVar(&in.Description, "description", "", "Job description")
	create.Flags().StringArrayVar(&items, "item", nil, "Material as item-id:quantity (repeatable)")

	cmd.AddCommand(create)
	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Profit and loss over active records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.reports.Balance(ctx, at, actor)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Cut-off as RFC 3339 or YYYY-MM-DD (default now)")
	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Inspect the audit trail"}
	cmd.AddCommand(&cobra.Command{
		Use:   "history <income|expense|catalog_item> <id>",
		Short: "List a record's audit entries, oldest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.audit.History(ctx, domain.SubjectType(args[0]), args[1], actor)
			})
		},
	})
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage employee profiles"}

	var name, rate string
	set := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Create or update an employee profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hourly, err := parseDecimal("rate", rate)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.profiles.Provision(ctx, usecase.ProvisionInput{
					UserID:      args[0],
					DisplayName: name,
					HourlyRate:  hourly,
				}, actor)
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "Display name")
	set.Flags().StringVar(&rate, "rate", "0", "Hourly rate")

	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show an employee profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, svc *services, actor domain.Actor) (any, error) {
				return svc.profiles.Get(ctx, args[0], actor)
			})
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func pageFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(offset, "offset", 0, "Rows to skip")
}
