package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/output"
	"github.com/healthnav/healthnav/internal/report"
)

// newAskCmd creates the ask command.
func newAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <document-id> <question>",
		Short: "Retrieve the passages most relevant to a question",
		Long: `Ask embeds the question with the same model used at index time
and prints the best-matching passages of the document, cited by
section. It does not generate an answer; it shows the evidence.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args[1:], " ")
			return runAsk(cmd, args[0], question, topK)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0,
		"Number of passages to retrieve (0 uses the configured default)")

	return cmd
}

func runAsk(cmd *cobra.Command, documentID, question string, topK int) error {
	out := output.New(cmd.OutOrStdout())

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.manager.Query(cmd.Context(), documentID, question, topK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		out.Warningf("No index found for %s, run 'healthnav index' first", documentID)
		return nil
	}

	for _, src := range report.Sources(results) {
		out.Statusf("📄", "%s (distance %.4f)", src.Label, src.Score)
		out.Quote(src.Text)
		out.Newline()
	}

	return nil
}
