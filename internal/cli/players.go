package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/relayview/internal/api/response"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Tournament player commands",
	}

	cmd.AddCommand(newPlayersListCmd())
	cmd.AddCommand(newPlayersShowCmd())

	return cmd
}

func toursPath(tourID string) string {
	return "/api/v1/tours/" + url.PathEscape(tourID) + "/players"
}

func newPlayersListCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list <tourId>",
		Short: "List the players of a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := toursPath(args[0])
			if refresh {
				path += "?refresh=true"
			}

			var result response.Roster
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the server's roster cache")

	return cmd
}

func newPlayersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <tourId> <key>",
		Short: "Show a player and their games",
		Long: `Show a player and their games.

The key is the FIDE id when the player has one, else the player's name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PlayerDetail
			if err := client.Get(cmd.Context(), toursPath(args[0])+"/"+url.PathEscape(args[1]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
