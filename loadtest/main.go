package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

type frame struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type stats struct {
	connected atomic.Int64
	sent      atomic.Int64
	received  atomic.Int64
	errors    atomic.Int64
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "relay websocket URL")
	clients := flag.Int("clients", 50, "number of concurrent connections")
	messages := flag.Int("messages", 20, "chat messages sent per connection")
	room := flag.String("room", "loadtest", "room every client joins and chats in")
	level := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	log := logs.GetLoggerFromString(*level)
	log.Info("Starting load test", "url", *url, "clients", *clients, "messages", *messages, "room", *room)

	// Every chat is broadcast to every connection, the sender included.
	expected := int64(*clients) * int64(*clients) * int64(*messages)

	var (
		st    stats
		ready sync.WaitGroup
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	began := time.Now()
	for i := 0; i < *clients; i++ {
		ready.Add(1)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runClient(id, *url, *room, *messages, expected/int64(max(*clients, 1)), &st, &ready, start, log)
		}(i)
	}

	ready.Wait()
	close(start)
	wg.Wait()

	elapsed := time.Since(began)
	log.Info("Load test complete",
		"connected", st.connected.Load(),
		"sent", st.sent.Load(),
		"received", st.received.Load(),
		"expected", expected,
		"errors", st.errors.Load(),
		"elapsed", elapsed,
	)
	if st.errors.Load() > 0 || st.received.Load() < expected {
		os.Exit(1)
	}
}

// runClient joins room, waits for every peer to be connected, sends its chats and
// reads broadcasts until it has seen want of them or the read deadline passes.
func runClient(id int, url, room string, messages int, want int64, st *stats, ready *sync.WaitGroup, start <-chan struct{}, log *slog.Logger) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		st.errors.Add(1)
		ready.Done()
		log.Warn("Dial failed", "client", id, "error", err)
		return
	}
	defer conn.Close()
	st.connected.Add(1)

	if err := conn.WriteJSON(map[string]string{"type": "join_room", "room": room}); err != nil {
		st.errors.Add(1)
		ready.Done()
		return
	}
	var ack frame
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "room_joined" {
		st.errors.Add(1)
		ready.Done()
		log.Warn("Join not acknowledged", "client", id, "error", err, "type", ack.Type)
		return
	}
	ready.Done()
	<-start

	done := make(chan struct{})
	go func() {
		defer close(done)
		var seen int64
		for seen < want {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				log.Debug("Reader stopped", "client", id, "seen", seen, "error", err)
				return
			}
			if f.Type == "chat" {
				seen++
				st.received.Add(1)
			}
		}
	}()

	username := fmt.Sprintf("load-%d", id)
	for i := 0; i < messages; i++ {
		err := conn.WriteJSON(map[string]string{
			"type":     "chat",
			"room":     room,
			"username": username,
			"message":  fmt.Sprintf("message %d from %s", i, username),
		})
		if err != nil {
			st.errors.Add(1)
			log.Warn("Send failed", "client", id, "error", err)
			break
		}
		st.sent.Add(1)
		time.Sleep(10 * time.Millisecond)
	}
	<-done
}
