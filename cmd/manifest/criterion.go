// Criterion commands manage acceptance criteria on features.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

var criterionCmd = &cobra.Command{
	Use:   "criterion",
	Short: "Manage acceptance criteria",
}

var (
	criterionDescription  string
	criterionVerification string
	criterionTestFile     string
	criterionStatus       string
	criterionReason       string
)

var criterionAddCmd = &cobra.Command{
	Use:   "add <feature-id>",
	Short: "Add an acceptance criterion to a feature",
	Long: `Add attaches a criterion to a feature. Verification defaults to
manual; use --verification test with --test-file for automated checks.

Example:
  manifest criterion add <feature-id> --description "login issues a session cookie"
  manifest criterion add <feature-id> --description "rate limit holds" --verification test --test-file auth/rate_test.go`,
	Args: cobra.ExactArgs(1),
	RunE: runCriterionAdd,
}

var criterionListCmd = &cobra.Command{
	Use:   "list <feature-id>",
	Short: "List a feature's criteria",
	Args:  cobra.ExactArgs(1),
	RunE:  runCriterionList,
}

var criterionUpdateCmd = &cobra.Command{
	Use:   "update <criterion-id>",
	Short: "Move a criterion between pending, complete and blocked",
	Long: `Update records a status move. Complete is terminal; a blocked
criterion needs --reason and returns to pending on unblock.

Example:
  manifest criterion update <id> --status complete
  manifest criterion update <id> --status blocked --reason "depends on SSO rollout"`,
	Args: cobra.ExactArgs(1),
	RunE: runCriterionUpdate,
}

func init() {
	criterionAddCmd.Flags().StringVar(&criterionDescription, "description", "", "criterion description (required)")
	criterionAddCmd.Flags().StringVar(&criterionVerification, "verification", "", "verification kind: manual or test (default: manual)")
	criterionAddCmd.Flags().StringVar(&criterionTestFile, "test-file", "", "test file reference")
	_ = criterionAddCmd.MarkFlagRequired("description")

	criterionUpdateCmd.Flags().StringVar(&criterionStatus, "status", "", "target status: pending, complete or blocked (required)")
	criterionUpdateCmd.Flags().StringVar(&criterionReason, "reason", "", "blocked reason (with --status blocked)")
	_ = criterionUpdateCmd.MarkFlagRequired("status")

	criterionCmd.AddCommand(criterionAddCmd)
	criterionCmd.AddCommand(criterionListCmd)
	criterionCmd.AddCommand(criterionUpdateCmd)
}

func runCriterionAdd(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	in := types.CreateCriterionInput{
		Description:  criterionDescription,
		Verification: criterionVerification,
	}
	if criterionTestFile != "" {
		in.TestFile = &criterionTestFile
	}

	criterion, err := backend.AddCriterion(args[0], in)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(criterion)
	}
	fmt.Printf("Created criterion: %s\n", criterion.ID)
	return nil
}

func runCriterionList(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	criteria, err := backend.ListCriteria(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(criteria)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tVERIFICATION\tDESCRIPTION")
	for _, c := range criteria {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Status, c.Verification, c.Description)
	}
	return w.Flush()
}

func runCriterionUpdate(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	var reason *string
	if criterionReason != "" {
		reason = &criterionReason
	}

	criterion, err := backend.UpdateCriterionStatus(args[0], criterionStatus, reason)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(criterion)
	}
	fmt.Printf("Criterion %s is now %s\n", criterion.ID, criterion.Status)
	return nil
}
