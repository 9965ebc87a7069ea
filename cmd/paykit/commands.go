package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/paykit/internal/core/builder"
	"github.com/DanielPopoola/paykit/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const requestTimeout = 60 * time.Second

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// run loads the app, hands it to fn and releases gateway connections afterwards.
func run(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to close gateway", "error", err)
		}
	}()

	ctx, cancel := commandContext(cmd)
	defer cancel()
	return fn(ctx, a)
}

func connectorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connectors",
		Short: "List enabled gateways and the requests they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(_ context.Context, a *app) error {
				return renderConnectors(cmd.OutOrStdout(), a.client.Resolver().Describe())
			})
		},
	}
}

type paymentFlags struct {
	amount        string
	currency      string
	modifier      string
	card          string
	expMonth      int
	expYear       int
	cvn           string
	walletToken   string
	walletType    string
	cryptogram    string
	eci           string
	clientID      string
	description   string
	linkName      string
	linkID        string
	supplementary map[string]string
}

func (f *paymentFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.amount, "amount", "a", "", "amount in major units, e.g. 10.50")
	flags.StringVar(&f.currency, "currency", "USD", "ISO 4217 currency code")
	flags.StringVarP(&f.modifier, "modifier", "m", "", "none, encrypted-mobile, decrypted-mobile or pay-by-link")
	flags.StringVar(&f.card, "card", "", "card number")
	flags.IntVar(&f.expMonth, "exp-month", 12, "card expiry month")
	flags.IntVar(&f.expYear, "exp-year", time.Now().Year()+2, "card expiry year")
	flags.StringVar(&f.cvn, "cvn", "", "card verification number")
	flags.StringVar(&f.walletToken, "wallet-token", "", "mobile wallet token or device PAN")
	flags.StringVar(&f.walletType, "wallet-type", "", "APPLE_PAY, GOOGLE_PAY or CLICK_TO_PAY")
	flags.StringVar(&f.cryptogram, "cryptogram", "", "decrypted wallet cryptogram")
	flags.StringVar(&f.eci, "eci", "", "decrypted wallet ECI")
	flags.StringVar(&f.clientID, "client-id", "", "client transaction id, generated when empty")
	flags.StringVar(&f.description, "description", "", "transaction description")
	flags.StringVar(&f.linkName, "link-name", "", "create a payment link with this name")
	flags.StringVar(&f.linkID, "link-id", "", "pay through an existing payment link")
	flags.StringToStringVar(&f.supplementary, "data", nil, "supplementary data as key=value pairs")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *paymentFlags) paymentMethod() domain.PaymentMethod {
	switch {
	case f.walletToken != "":
		return &domain.MobileWallet{
			Token:      f.walletToken,
			MobileType: domain.EncryptedMobileType(f.walletType),
			ExpMonth:   f.expMonth,
			ExpYear:    f.expYear,
		}
	case f.card != "":
		return &domain.CreditCardData{Number: f.card, ExpMonth: f.expMonth, ExpYear: f.expYear, Cvn: f.cvn}
	default:
		return nil
	}
}

func (f *paymentFlags) builder(client *builder.Client, t domain.TransactionType) (*builder.TransactionBuilder, error) {
	amount, err := domain.ParseAmount(f.amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", f.amount, err)
	}
	modifier, ok := domain.ParseModifier(f.modifier)
	if !ok {
		return nil, fmt.Errorf("unknown modifier %q", f.modifier)
	}
	if f.modifier == "" && f.walletToken != "" {
		modifier = domain.ModifierEncryptedMobile
	}

	clientID := f.clientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	b := client.NewTransaction(t, f.paymentMethod()).
		WithAmount(amount).
		WithCurrency(f.currency).
		WithModifier(modifier).
		WithClientTransactionID(clientID).
		WithDescription(f.description).
		WithSupplementaryDataMap(f.supplementary)

	if f.cryptogram != "" {
		b.WithMobileWalletData(f.cryptogram, f.eci)
	}
	if f.linkID != "" {
		b.WithPaymentLinkID(f.linkID)
	}
	if f.linkName != "" {
		b.WithPayLinkData(domain.PayLinkData{Type: "PAYMENT", UsageMode: "SINGLE", Name: f.linkName})
	}
	return b, nil
}

func directCmd(opts *rootOptions, use, short string, t domain.TransactionType) *cobra.Command {
	f := &paymentFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				b, err := f.builder(a.client, t)
				if err != nil {
					return err
				}
				tx, err := b.WithGateway(opts.gateway).Execute(ctx)
				if err != nil {
					return describeError(err)
				}
				return renderTransactions(cmd.OutOrStdout(), tx)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func chargeCmd(opts *rootOptions) *cobra.Command {
	return directCmd(opts, "charge", "Authorize and capture a payment in one step", domain.TypeSale)
}

func authorizeCmd(opts *rootOptions) *cobra.Command {
	return directCmd(opts, "authorize", "Preauthorize a payment for later capture", domain.TypeAuthorize)
}

const followUpHelp = `The transaction is addressed by its gateway id and the gateway decides
whether the action is allowed. The sandbox gateway keeps transactions in memory
for the life of one process, so ids from an earlier paykit run are unknown to it
and the request fails with RESOURCE_NOT_FOUND. Use a gateway that keeps state
(--gateway rest or --gateway iso8583) for real ids, or run "paykit demo" to see
follow-ups against the sandbox.`

// followUpCmd issues capture, refund or reverse against a transaction known by
// id only. Without --gateway the first capable gateway receives it.
func followUpCmd(opts *rootOptions, action, short string) *cobra.Command {
	var (
		amount   string
		sequence int
		count    int
	)

	cmd := &cobra.Command{
		Use:   action + " <transaction-id>",
		Short: short,
		Long:  short + ".\n\n" + followUpHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				original := a.client.FromID(args[0], opts.gateway)

				var b *builder.TransactionBuilder
				switch domain.Action(action) {
				case domain.ActionCapture:
					b = original.Capture()
				case domain.ActionRefund:
					b = original.Refund()
				default:
					b = original.Reverse()
				}

				if amount != "" {
					parsed, err := domain.ParseAmount(amount)
					if err != nil {
						return fmt.Errorf("invalid amount %q: %w", amount, err)
					}
					b.WithAmount(parsed)
				}
				if sequence > 0 || count > 0 {
					b.WithMultiCapture(sequence, count)
				}

				tx, err := b.Execute(ctx)
				if err != nil {
					return describeError(err)
				}
				return renderTransactions(cmd.OutOrStdout(), tx)
			})
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "partial amount, defaults to the full amount")
	if action == string(domain.ActionCapture) {
		cmd.Flags().IntVar(&sequence, "sequence", 0, "multi-capture sequence number")
		cmd.Flags().IntVar(&count, "count", 0, "multi-capture total payment count")
	}
	return cmd
}

// describeError prefixes builder and dispatch failures with their code.
func describeError(err error) error {
	var builderErr *domain.BuilderError
	if errors.As(err, &builderErr) {
		return fmt.Errorf("%s: %w", builderErr.Code, err)
	}
	var dispatchErr *domain.DispatchError
	if errors.As(err, &dispatchErr) {
		return fmt.Errorf("%s: %w", dispatchErr.Code, err)
	}
	return err
}

// demoStep runs once the transaction it needs exists and stores its result in save.
type demoStep struct {
	name  string
	needs **builder.Transaction
	save  **builder.Transaction
	run   func(ctx context.Context) (*builder.Transaction, error)
}

func demoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a sample lifecycle against the configured gateways and print statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				results := runDemo(ctx, a.client, opts.gateway)

				if err := renderDemo(out, results); err != nil {
					return err
				}
				fmt.Fprintln(out)
				return renderStats(out, a.registry)
			})
		},
	}
}

var errSkipped = errors.New("skipped: previous step failed")

type demoResult struct {
	step string
	tx   *builder.Transaction
	err  error
}

func runDemo(ctx context.Context, client *builder.Client, gw string) []demoResult {
	card := &domain.CreditCardData{Number: "4263970000005262", ExpMonth: 12, ExpYear: time.Now().Year() + 2, Cvn: "123"}
	declined := &domain.CreditCardData{Number: "4000000000000002", ExpMonth: 12, ExpYear: time.Now().Year() + 2, Cvn: "123"}
	wallet := &domain.MobileWallet{Token: "eyJ2ZXJzaW9uIjoiRUNfdjEifQ==", MobileType: domain.MobileApplePay}

	var sale, auth, declinedSale *builder.Transaction

	steps := []demoStep{
		{name: "sale", save: &sale, run: func(ctx context.Context) (*builder.Transaction, error) {
			return client.Charge(card, decimal.RequireFromString("19.99")).WithCurrency("USD").WithGateway(gw).Execute(ctx)
		}},
		{name: "refund sale", needs: &sale, run: func(ctx context.Context) (*builder.Transaction, error) {
			return sale.Refund().WithAmount(decimal.RequireFromString("5.00")).Execute(ctx)
		}},
		{name: "authorize", save: &auth, run: func(ctx context.Context) (*builder.Transaction, error) {
			return client.Authorize(card, decimal.NewFromInt(60)).WithCurrency("EUR").WithGateway(gw).Execute(ctx)
		}},
		{name: "capture 1/2", needs: &auth, run: func(ctx context.Context) (*builder.Transaction, error) {
			return auth.Capture().WithAmount(decimal.NewFromInt(20)).WithMultiCapture(1, 2).Execute(ctx)
		}},
		{name: "capture 2/2", needs: &auth, run: func(ctx context.Context) (*builder.Transaction, error) {
			return auth.Capture().WithAmount(decimal.NewFromInt(40)).WithMultiCapture(2, 2).Execute(ctx)
		}},
		{name: "encrypted mobile sale", run: func(ctx context.Context) (*builder.Transaction, error) {
			return client.Charge(wallet, decimal.NewFromInt(10)).WithCurrency("EUR").
				WithModifier(domain.ModifierEncryptedMobile).WithGateway(gw).Execute(ctx)
		}},
		{name: "declined sale", save: &declinedSale, run: func(ctx context.Context) (*builder.Transaction, error) {
			return client.Charge(declined, decimal.NewFromInt(10)).WithCurrency("USD").WithGateway(gw).Execute(ctx)
		}},
		{name: "refund declined", needs: &declinedSale, run: func(ctx context.Context) (*builder.Transaction, error) {
			return declinedSale.Refund().Execute(ctx)
		}},
	}

	results := make([]demoResult, 0, len(steps))
	for _, step := range steps {
		if step.needs != nil && *step.needs == nil {
			results = append(results, demoResult{step: step.name, err: errSkipped})
			continue
		}

		tx, err := step.run(ctx)
		results = append(results, demoResult{step: step.name, tx: tx, err: describeError(err)})
		if step.save != nil {
			*step.save = tx
		}
	}
	return results
}
