package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moonstripe/resnap/internal/journal"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent captures from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of captures to show")
	return cmd
}

func (a *app) runHistory(limit int) error {
	store, err := journal.Open(a.journalPath())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no captures recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAPTURED\tHOST\tOUTCOME\tREGIONS\tBOX\tFILE")
	for _, r := range records {
		box := "-"
		if r.Outcome == journal.OutcomeContent {
			box = fmt.Sprintf("(%d,%d)-(%d,%d)", r.MinX, r.MinY, r.MaxX, r.MaxY)
		}
		file := r.CroppedPath
		if file == "" {
			file = r.FullPath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CapturedAt.Format("2006-01-02 15:04:05"), r.Host, r.Outcome, r.Regions, box, file)
	}
	return w.Flush()
}
