package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/dmrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("dmchat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	token := flag.String("token", os.Getenv("DMCHAT_TOKEN"), "connection token")
	to := flag.String("to", "", "recipient id")
	flag.Parse()

	if *token == "" || *to == "" {
		return errors.New("-token and -to are required")
	}

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := target.Query()
	q.Set("token", *token)
	target.RawQuery = q.Encode()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s, chatting with %s\n", *addr, *to)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *to)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound frame
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Event {
		case proto.EventPrivateMessage:
			var msg proto.Message
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				log.Printf("unmarshal privateMessage: %v", err)
				continue
			}
			printMessage(msg)
		case proto.EventChatHistory:
			var history []proto.Message
			if err := json.Unmarshal(outbound.Data, &history); err != nil {
				log.Printf("unmarshal chatHistory: %v", err)
				continue
			}
			fmt.Printf("-- %d messages of history --\n", len(history))
			for _, msg := range history {
				printMessage(msg)
			}
		case proto.EventTyping, proto.EventStopTyping:
			var evt proto.TypingEvent
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal %s: %v", outbound.Event, err)
				continue
			}
			fmt.Printf("(%s %s)\n", evt.SenderID, outbound.Event)
		case proto.EventUserStatus:
			var evt proto.UserStatusEvent
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal userStatus: %v", err)
				continue
			}
			fmt.Printf("* %s is %s\n", evt.UserID, evt.Status)
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, outbound.Data)
		}
	}
}

func printMessage(msg proto.Message) {
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04:05"), msg.SenderEmail, msg.Text)
}

func writeLoop(ctx context.Context, conn *websocket.Conn, to string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.PrivateMessageData{RecipientID: to, Text: text})
			if err != nil {
				log.Printf("marshal msg: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Event: proto.EventPrivateMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
