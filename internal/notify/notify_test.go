package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardKeepsLatest(t *testing.T) {
	board := NewBoard(2)
	board.Notify(Notification{Kind: "a", Message: "first"})
	board.Notify(Notification{Kind: "b", Message: "second"})
	board.Notify(Notification{Kind: "c", Message: "third"})

	items := board.Drain()
	require.Len(t, items, 2)
	require.Equal(t, "second", items[0].Message)
	require.Equal(t, "third", items[1].Message)
	require.False(t, items[0].At.IsZero())

	require.Empty(t, board.Drain())
}

func TestMultiFansOut(t *testing.T) {
	var got []string
	first := Func(func(n Notification) { got = append(got, "first:"+n.Message) })
	second := Func(func(n Notification) { got = append(got, "second:"+n.Message) })

	Multi{first, nil, second}.Notify(Notification{Message: "boom"})

	require.Equal(t, []string{"first:boom", "second:boom"}, got)
}
