package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trace2e-io/trace2e/internal/client"
	"github.com/trace2e-io/trace2e/internal/compliance"
)

var operatorAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&operatorAddr, "addr", "[::1]:8080", "Middleware address")

	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyConfidentialityCmd, policyIntegrityCmd, policyShowCmd)

	confFlags.register(policyConfidentialityCmd)
	policyConfidentialityCmd.Flags().BoolVar(&policyDisable, "disable", false, "Clear the flag instead of setting it")
	integFlags.register(policyIntegrityCmd)
	policyIntegrityCmd.Flags().BoolVar(&policyDisable, "disable", false, "Clear the flag instead of setting it")
	showFlags.register(policyShowCmd)
}

var (
	confFlags     resourceFlags
	integFlags    resourceFlags
	showFlags     resourceFlags
	policyDisable bool
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage compliance labels on a node",
}

var policyConfidentialityCmd = &cobra.Command{
	Use:   "confidentiality",
	Short: "Set or clear local_confidentiality on a resource",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := confFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		return op.SetConfidentiality(r, !policyDisable)
	},
}

var policyIntegrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Set or clear local_integrity on a resource",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := integFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		return op.SetIntegrity(r, !policyDisable)
	},
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a resource's labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := showFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		policies, err := op.GetPolicies(r)
		if err != nil {
			return err
		}
		for _, p := range policies {
			fmt.Printf("%s\n  confidential=%v integrity=%v deleted=%s consent=%v\n",
				p.ID.String(), p.Label.Confidential, p.Label.Integrity,
				deletionString(p.Label.Deleted), p.Label.ConsentRequired)
		}
		return nil
	},
}

func deletionString(d compliance.DeletionState) string {
	switch d {
	case compliance.DeletionPending:
		return "pending"
	case compliance.DeletionConfirmed:
		return "confirmed"
	default:
		return "none"
	}
}
