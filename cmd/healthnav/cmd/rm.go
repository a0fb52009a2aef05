package cmd

import (
	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/output"
)

// newRmCmd creates the rm command.
func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Delete a document's index",
		Long: `Rm removes both index artifacts for the document. Removing a
document that was never indexed succeeds silently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, args[0])
		},
	}
}

func runRm(cmd *cobra.Command, documentID string) error {
	out := output.New(cmd.OutOrStdout())

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.RemoveIndex(documentID); err != nil {
		return err
	}

	out.Successf("Removed index for %s", documentID)
	return nil
}
