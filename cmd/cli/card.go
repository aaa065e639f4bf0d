package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bigredeye/schoolbook/internal/selection"
)

func makeDumpCardCommand() *cobra.Command {
	var student int

	cmd := &cobra.Command{
		Use:   "card",
		Short: "Dump the card of a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpCard(cmd.Context(), student)
		},
	}
	cmd.Flags().IntVar(&student, "student", 0, "Student id")
	check(cmd.MarkFlagRequired("student"))

	return cmd
}

func dumpCard(ctx context.Context, id int) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	view, err := c.load(ctx)
	if err != nil {
		return err
	}

	slot := &selection.Slot{}
	for _, student := range view.Students.Items {
		if student.Id == id {
			check(slot.Set(student))
			break
		}
	}

	student, err := selection.Require(slot)
	if err != nil {
		return errors.Wrapf(err, "Student %d", id)
	}
	defer func() { check(slot.Clear()) }()

	for _, line := range student.CardLines(c.conf.Placeholders) {
		fmt.Println(line)
	}
	return nil
}
