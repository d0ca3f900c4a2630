package cli

import (
	"github.com/spf13/cobra"

	"github.com/trace2e-io/trace2e/internal/client"
	"github.com/trace2e-io/trace2e/internal/naming"
)

var (
	enforceFlags  resourceFlags
	decideFlags   resourceFlags
	decideNode    string
	decideFile    string
	decideDeny    bool
	deleteFlags   resourceFlags
	refFlags      resourceFlags
)

func init() {
	rootCmd.AddCommand(consentCmd, deleteCmd, referencesCmd)
	consentCmd.AddCommand(consentEnforceCmd, consentDecideCmd)

	enforceFlags.register(consentEnforceCmd)
	decideFlags.register(consentDecideCmd)
	consentDecideCmd.Flags().StringVar(&decideNode, "destination-node", "", "Destination node the decision applies to")
	consentDecideCmd.Flags().StringVar(&decideFile, "destination-file", "", "Destination file the decision applies to")
	consentDecideCmd.Flags().BoolVar(&decideDeny, "deny", false, "Record a denial instead of a grant")

	deleteFlags.register(deleteCmd)
	refFlags.register(referencesCmd)
}

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Manage the consent gate on a node",
}

var consentEnforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Require explicit consent for flows carrying a resource's data",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := enforceFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		return op.EnforceConsent(r)
	},
}

var consentDecideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Record a consent decision for a pending or future flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := decideFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		var destResource naming.Resource
		if decideFile != "" {
			destResource = naming.NewFile(decideFile)
		}
		return op.SetConsentDecision(r, decideNode, destResource, !decideDeny)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Mark a resource deleted and broadcast to affected peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := deleteFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		return op.SetDeleted(r)
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references",
	Short: "Print a resource's lineage",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := refFlags.resource()
		if err != nil {
			return err
		}
		op, err := client.NewOperator(operatorAddr)
		if err != nil {
			return err
		}
		defer op.Close()
		refs, err := op.GetReferences(r)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			cmd.Println(ref.String())
		}
		return nil
	},
}
