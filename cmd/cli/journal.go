package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func makeDumpJournalCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Dump recent mark mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpJournal(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Number of entries, 0 for all")

	return cmd
}

func dumpJournal(ctx context.Context, limit int) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if c.db == nil {
		return errors.New("Journal is disabled, set DataBase.DSN")
	}

	entries, err := c.db.ListJournal(ctx, limit)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%s\t%s\t%d\t%d\t%s\t%s\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Kind,
			entry.SchoolboyID,
			entry.ColumnID,
			entry.Outcome,
			entry.Error,
		)
	}

	return nil
}
