package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/types"
)

func newValidateCmd(rt *runtime, opts *options) *cobra.Command {
	var roleFlag string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the profile's session for a role page",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := types.ParseRole(roleFlag)
			if err != nil {
				return err
			}

			ok, err := rt.controller(opts, cmd.OutOrStdout()).InitializePage(cmd.Context(), role)
			if !ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s access authorized\n", role.Title())
			return nil
		},
	}

	cmd.Flags().StringVar(&roleFlag, "role", "", "Role page to validate (admin, doctor, patient)")
	cmd.MarkFlagRequired("role")
	return cmd
}

func newLogoutCmd(rt *runtime, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Report the logout to the ledger and clear the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := rt.coordinator(opts, cmd.OutOrStdout()).Logout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged out %s\n", role)
			return nil
		},
	}
}

func newSessionCmd(rt *runtime, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or modify the stored session",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := rt.store(opts).Read(cmd.Context())
			if err != nil {
				return err
			}
			if current == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no session")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Role:    %s\n", current.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\n", current.Address)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.store(opts).Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}

	var token, roleFlag, address string
	write := &cobra.Command{
		Use:   "write",
		Short: "Store a complete session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := types.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			if !wallet.ValidAddress(address) {
				return types.NewInvalidInputError("invalid wallet address", map[string]interface{}{"address": address})
			}
			s := types.Session{Token: token, Role: role, Address: wallet.NormalizeAddress(address)}
			if err := rt.store(opts).Write(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session stored for %s\n", s.Address)
			return nil
		},
	}
	write.Flags().StringVar(&token, "token", "", "Session token")
	write.Flags().StringVar(&roleFlag, "role", "", "Session role")
	write.Flags().StringVar(&address, "address", "", "Wallet address bound to the session")
	write.MarkFlagRequired("token")
	write.MarkFlagRequired("role")
	write.MarkFlagRequired("address")

	cmd.AddCommand(show, clearCmd, write)
	return cmd
}

func newAgentCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "agent <address>",
		Short: "Resolve an agent's display name from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), rt.infra.Oracle.AgentName(cmd.Context(), args[0]))
			return nil
		},
	}
}
