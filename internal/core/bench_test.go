package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkPresenceBroadcast(b *testing.B, recipients int) {
	d := NewDispatcher(nil, nil)

	conns := make([]*Conn, 0, recipients)
	for i := range recipients {
		c := NewConn(Identity{ID: fmt.Sprintf("%024x", i)}, DefaultQueueSize, DropOldest)
		d.Attach(c)
		conns = append(conns, c)
	}
	ev := &Event{Kind: EventUserStatus, UserID: userA, Status: StatusOnline}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.Broadcast(ev)
	}

	b.StopTimer()
	d.CloseAll()
}

func BenchmarkPresenceBroadcast_10(b *testing.B)  { benchmarkPresenceBroadcast(b, 10) }
func BenchmarkPresenceBroadcast_100(b *testing.B) { benchmarkPresenceBroadcast(b, 100) }
func BenchmarkPresenceBroadcast_500(b *testing.B) { benchmarkPresenceBroadcast(b, 500) }

func BenchmarkDirectMessage(b *testing.B) {
	st := &benchStore{}
	hub := NewHub(st, Options{AdminID: adminID})
	defer hub.Close()

	sender, err := hub.Open(context.Background(), Identity{ID: userA})
	if err != nil {
		b.Fatal(err)
	}
	recipient, err := hub.Open(context.Background(), Identity{ID: userB})
	if err != nil {
		b.Fatal(err)
	}
	go func() {
		for range sender.Conn().Events() {
		}
	}()

	cmd := Command{Kind: CommandSendMessage, RecipientID: userB, Text: "payload"}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := sender.Handle(ctx, cmd); err != nil {
			b.Fatal(err)
		}
		for ev := range recipient.Conn().Events() {
			if ev.Kind == EventPrivateMessage {
				break
			}
		}
	}
}
