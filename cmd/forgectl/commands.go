package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"dragon-forge/internal/config"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/forgefile"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server   string
	adminKey string
	account  string
}

func (o *rootOptions) client() *Client {
	return NewClient(o.server, o.adminKey, o.account)
}

func newRootCmd() *cobra.Command {
	defaults, _ := config.LoadCtl()
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "forgectl",
		Short:         "Administer a dragon forge server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaults.ServerURL, "forge-server base URL")
	root.PersistentFlags().StringVar(&opts.adminKey, "admin-key", defaults.AdminAPIKey, "admin API key")
	root.PersistentFlags().StringVar(&opts.account, "account", defaults.Account, "account address for player commands")

	root.AddCommand(
		newApplyCmd(opts),
		newModeCmd(opts, "staking", (*Client).SetStakingMode),
		newModeCmd(opts, "minting", (*Client).SetMintingMode),
		newRateCmd(opts),
		newBonusCmd(opts),
		newValueCmd(opts, "discount", "Set the loyalty discount divisor", (*Client).SetLoyaltyDiscount),
		newExpiryCmd(opts),
		newAddressCmd(opts, "provider", "Set the entropy provider"),
		newAddressCmd(opts, "reward-contract", "Set the reward collection address"),
		newFireCmd(opts),
		newPendingCmd(opts),
		newSeedCmd(opts),
		newSweepCmd(opts),
		newRewardsCmd(opts),
		newStakeCmd(opts, "stake", "Stake dragons", (*Client).Stake),
		newStakeCmd(opts, "unstake", "Unstake dragons", (*Client).Unstake),
		newApproveCmd(opts),
		newRequestCmd(opts),
		newSeqCmd(opts, "show", "Show a mint request", (*Client).MintRequest),
		newSeqCmd(opts, "finalize", "Finalize a delivered mint request", (*Client).Finalize),
		newSeqCmd(opts, "resolve", "Cancel and refund an expired mint request", (*Client).Resolve),
		newCheckinCmd(opts),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply tiers, rarity levels and settings from a forge.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := forgefile.Load(path)
			if err != nil {
				return err
			}
			if err := f.Apply(cmd.Context(), opts.client()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d tiers and %d rarity levels from %s\n", len(f.Tiers), len(f.RarityLevels), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "forge.yaml", "forge file")
	return cmd
}

func newModeCmd(opts *rootOptions, name string, set func(*Client, context.Context, bool) error) *cobra.Command {
	return &cobra.Command{
		Use:       name + " open|close",
		Short:     "Open or close " + name,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"open", "close"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := set(opts.client(), cmd.Context(), args[0] == "open"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, args[0])
			return nil
		},
	}
}

func newRateCmd(opts *rootOptions) *cobra.Command {
	var perHour, perDay uint64
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Set the per-item accrual rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			switch {
			case cmd.Flags().Changed("per-hour"):
				return c.SetPointsPerHour(cmd.Context(), perHour)
			case cmd.Flags().Changed("per-day"):
				return c.SetPointsPerDay(cmd.Context(), perDay)
			}
			return fmt.Errorf("one of --per-hour or --per-day is required")
		},
	}
	cmd.Flags().Uint64Var(&perHour, "per-hour", 0, "points per item per hour")
	cmd.Flags().Uint64Var(&perDay, "per-day", 0, "points per item per day")
	cmd.MarkFlagsMutuallyExclusive("per-hour", "per-day")
	return cmd
}

func newBonusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonus",
		Short: "Set check-in bonuses",
	}
	cmd.AddCommand(
		newValueCmd(opts, "daily", "Set the daily check-in bonus", (*Client).SetDailyBonus),
		newValueCmd(opts, "loyalty", "Set the extra check-in bonus for loyalty holders", (*Client).SetLoyaltyDailyBonus),
	)
	return cmd
}

func newValueCmd(opts *rootOptions, name, short string, set func(*Client, context.Context, uint64) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " VALUE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[0])
			}
			return set(opts.client(), cmd.Context(), v)
		},
	}
}

func newExpiryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expiry DURATION",
		Short: "Set how long a mint request may stay unresolved, e.g. 24h",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q", args[0])
			}
			return opts.client().SetMintExpiry(cmd.Context(), d)
		},
	}
}

func newAddressCmd(opts *rootOptions, setting, short string) *cobra.Command {
	return &cobra.Command{
		Use:   setting + " ADDRESS",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := forge.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return opts.client().SetAddress(cmd.Context(), setting, addr)
		},
	}
}

func newFireCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fire SEQ [RANDOMNESS]",
		Short: "Deliver oracle randomness for a request; random when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := parseSeq(args[0])
			if err != nil {
				return err
			}
			value := ""
			if len(args) == 2 {
				value = args[1]
			} else {
				var b [32]byte
				if _, err := rand.Read(b[:]); err != nil {
					return err
				}
				value = "0x" + hex.EncodeToString(b[:])
			}
			out, err := opts.client().FireOracle(cmd.Context(), seq, value)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newPendingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List oracle requests awaiting delivery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.client().PendingOracle(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed COLLECTION ADDRESS",
		Short: "Mint items of a collection (dragons, party) to an address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := forge.ParseAddress(args[1])
			if err != nil {
				return err
			}
			out, err := opts.client().SeedCollection(cmd.Context(), args[0], to, count)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of items")
	return cmd
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Finalize delivered requests and resolve expired ones now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.client().Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newRewardsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rewards [ADDRESS]",
		Short: "Show reward points of an account, --account by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := opts.account
			if len(args) == 1 {
				raw = args[0]
			}
			account, err := forge.ParseAddress(raw)
			if err != nil {
				return err
			}
			out, err := opts.client().Rewards(cmd.Context(), account)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newStakeCmd(opts *rootOptions, name, short string, call func(*Client, context.Context, []uint64) (map[string]any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint64, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseUint(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid token id %q", a)
				}
				ids = append(ids, id)
			}
			out, err := call(opts.client(), cmd.Context(), ids)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newApproveCmd(opts *rootOptions) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve COLLECTION OPERATOR",
		Short: "Approve an operator, usually the vault, over your items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, err := forge.ParseAddress(args[1])
			if err != nil {
				return err
			}
			out, err := opts.client().Approve(cmd.Context(), args[0], operator, !revoke)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of grant")
	return cmd
}

func newRequestCmd(opts *rootOptions) *cobra.Command {
	var tier int
	var fee uint64
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Spend reward points on a roll",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.client().RequestToken(cmd.Context(), tier, fee)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().IntVar(&tier, "tier", 0, "tier index")
	cmd.Flags().Uint64Var(&fee, "fee", 0, "oracle fee to attach")
	return cmd
}

func newSeqCmd(opts *rootOptions, name, short string, call func(*Client, context.Context, uint64) (map[string]any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " SEQ",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := parseSeq(args[0])
			if err != nil {
				return err
			}
			out, err := call(opts.client(), cmd.Context(), seq)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newCheckinCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Claim the daily check-in bonus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.client().Checkin(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func parseSeq(raw string) (uint64, error) {
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || seq == 0 {
		return 0, fmt.Errorf("invalid sequence number %q", raw)
	}
	return seq, nil
}
