package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/cache"
	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
)

func makePairCommand(use, short string, kind models.MutationKind) *cobra.Command {
	var student, column int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd.Context(), kind, models.Pair{StudentID: student, ColumnID: column})
		},
	}

	cmd.Flags().IntVar(&student, "student", 0, "Student id")
	cmd.Flags().IntVar(&column, "column", 0, "Column id")
	check(cmd.MarkFlagRequired("student"))
	check(cmd.MarkFlagRequired("column"))

	return cmd
}

func makeMarkCommand() *cobra.Command {
	return makePairCommand("mark", "Mark a student in a column", models.MutationCreate)
}

func makeUnmarkCommand() *cobra.Command {
	return makePairCommand("unmark", "Remove marks of a student in a column", models.MutationDelete)
}

func mutate(ctx context.Context, kind models.MutationKind, pair models.Pair) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.store.Fetch(ctx, cache.KeyLessons); err != nil {
		log.Warn("Failed to load marks", zap.Error(err))
	}

	if err := <-c.mutations().Start(ctx, kind, pair); err != nil {
		return err
	}

	log.Info("Done", lf.Mutation(kind), lf.StudentID(pair.StudentID), lf.ColumnID(pair.ColumnID))
	return nil
}
