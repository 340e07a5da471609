package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/relayview/internal/api/request"
	"github.com/mcoot/relayview/internal/api/response"
)

func newQuoteCmd() *cobra.Command {
	var req request.QuoteRequest

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Validate a patron checkout and show the amount",
		Long: `Validate a patron checkout without charging anything.

--other takes a typed-in amount as a user would enter it ("12,50");
it wins over --amount. Lifetime uses the currency's fixed price.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Quote
			if err := client.Post(cmd.Context(), "/api/v1/checkout/quote", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Currency, "currency", "USD", "ISO currency code")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "Preset amount; the currency default when unset")
	cmd.Flags().StringVar(&req.Other, "other", "", "Typed-in amount")
	cmd.Flags().StringVar(&req.Freq, "freq", "", "Frequency: onetime, monthly, lifetime")
	cmd.Flags().StringVar(&req.Dest, "dest", "", "Destination: me, gift")
	cmd.Flags().StringVar(&req.GiftUsername, "gift", "", "Username receiving a gift")
	cmd.Flags().StringVar(&req.UserID, "user", "", "Viewer username, who cannot gift to themselves")
	cmd.Flags().BoolVar(&req.HasLifetime, "has-lifetime", false, "Viewer already holds lifetime status")

	return cmd
}
