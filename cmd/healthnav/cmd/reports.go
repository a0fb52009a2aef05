package cmd

import (
	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/output"
)

// newReportsCmd creates the reports command.
func newReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List all indexed documents",
		Args:  cobra.NoArgs,
		RunE:  runReports,
	}
}

func runReports(cmd *cobra.Command, _ []string) error {
	out := output.New(cmd.OutOrStdout())

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.store.List()
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		out.Status("", "No indexed documents in "+a.cfg.Storage.Dir)
		return nil
	}

	for _, id := range ids {
		out.Status("📄", id)
	}
	out.Newline()
	out.Statusf("", "%d document(s) in %s", len(ids), a.cfg.Storage.Dir)

	return nil
}
