package main

import (
	"context"
	"strings"

	"github.com/spf13/pflag"

	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/user"
)

func (cli *commandLine) feesCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var filter fee.QueryFilter
	fs.StringVar(&filter.Status, "status", "all", "paid, pending, partial or all")
	fs.StringVar(&filter.Search, "search", "", "match on student name or description")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		if !sess.HasRole(user.RoleAccountant, user.RoleAdmin) {
			// everyone else only sees their own fees
			filter.StudentID = sess.ID
		}
		fees, err := cli.Fees.Filter(ctx, filter)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(fees)+2)
		for _, f := range fees {
			rows = append(rows, []string{
				f.ID, f.StudentName, f.Description, money(f.Amount), money(f.Paid()), money(f.Outstanding()),
				f.DueDate, f.Status,
			})
		}
		if cli.format == formatTable && len(fees) > 0 {
			totals := fee.ComputeTotals(fees)
			rows = append(rows,
				[]string{"", "", "revenue", money(totals.Revenue)},
				[]string{"", "", "pending", money(totals.Pending)},
			)
		}
		return cli.render(fees, []string{"ID", "STUDENT", "DESCRIPTION", "AMOUNT", "PAID", "DUE", "DUE DATE", "STATUS"}, rows)
	}
}

func (cli *commandLine) payCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	feeID := fs.String("fee", "", "fee ID")
	var p fee.Payment
	fs.Float64Var(&p.Amount, "amount", 0, "amount paid")
	fs.StringVar(&p.Method, "method", fee.MethodCreditCard, "one of: "+strings.Join(fee.Methods, ", "))
	fs.StringVar(&p.TransactionID, "txn", "", "transaction ID (generated when empty)")
	fs.StringVar(&p.Notes, "notes", "", "notes")
	return func(ctx context.Context) error {
		if *feeID == "" {
			fs.Usage()
			return errHelp
		}
		sess, err := cli.session()
		if err != nil {
			return err
		}
		f, err := cli.Fees.RecordPayment(ctx, sess, *feeID, p)
		if err != nil {
			return err
		}
		cli.Logger.Info("cli: payment recorded", map[string]interface{}{"fee": f.ID, "amount": p.Amount}, sess)
		return cli.render(f, nil, keyValues(
			"fee", f.ID,
			"student", f.StudentName,
			"status", f.Status,
			"paid", money(f.Paid()),
			"balance", money(*f.BalanceDue),
			"method", f.PaymentMethod,
			"transaction", f.TransactionID,
			"paid on", f.PaidDate,
		))
	}
}
