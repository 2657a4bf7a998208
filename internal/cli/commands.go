package cli

import (
	"github.com/spf13/cobra"
)

func newRecomputeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute GROUP_ID",
		Short: "Rebuild a group's pending settlements",
		Long: `Rebuild a group's pending settlements from its expenses.

Settled rows are kept. Examples:
  settlectl recompute 3f1c...
  settlectl --format json recompute 3f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			ownerID, err := s.owner(ctx, args[0])
			if err != nil {
				return err
			}
			result, err := s.engine.Recompute(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, recomputeView{
				GroupID:          args[0],
				SettlementsCount: result.SettlementsCount,
				PreservedCount:   result.PreservedCount,
				PreservedIDs:     result.PreservedIDs,
			})
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list GROUP_ID",
		Short: "List a group's settlements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			ownerID, err := s.owner(ctx, args[0])
			if err != nil {
				return err
			}
			settlements, err := s.engine.List(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			names, err := s.names(ctx, args[0], ownerID)
			if err != nil {
				return err
			}

			view := settlementList{GroupID: args[0], Settlements: []settlementRow{}}
			for _, st := range settlements {
				view.Settlements = append(view.Settlements, newSettlementRow(st, names))
			}
			return render(cmd.OutOrStdout(), opts.Format, view)
		},
	}
}

func newBalancesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances GROUP_ID",
		Short: "Show net balances and the plan a recompute would write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			ownerID, err := s.owner(ctx, args[0])
			if err != nil {
				return err
			}
			report, err := s.engine.Balances(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			names, err := s.names(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, newBalanceView(args[0], report, names))
		},
	}
}

func newSettleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settle SETTLEMENT_ID",
		Short: "Mark one settlement as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			existing, err := s.store.GetSettlement(ctx, args[0])
			if err != nil {
				return err
			}
			ownerID, err := s.owner(ctx, existing.GroupID)
			if err != nil {
				return err
			}
			settled, err := s.engine.Settle(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			names, err := s.names(ctx, settled.GroupID, ownerID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, newSettlementRow(settled, names))
		},
	}
}

func newSettleAllCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settle-all GROUP_ID",
		Short: "Mark every pending settlement of a group as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			ownerID, err := s.owner(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := s.engine.SettleAll(ctx, args[0], ownerID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, settleAllView{GroupID: args[0], SettledCount: n})
		},
	}
}
