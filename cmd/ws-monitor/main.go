package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"vidhub/pkg/models"
)

// usage: ws-monitor [ws-url] [target-id]
// ACCESS_TOKEN, when set, is sent as a bearer token.
func main() {
	server := "ws://127.0.0.1:8000/api/v1/ws/events"
	if len(os.Args) > 1 {
		server = os.Args[1]
	}

	u, err := url.Parse(server)
	if err != nil {
		panic(err)
	}
	if len(os.Args) > 2 {
		q := u.Query()
		q.Set("target", os.Args[2])
		u.RawQuery = q.Encode()
	}

	header := http.Header{}
	if tok := os.Getenv("ACCESS_TOKEN"); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	fmt.Println("WS monitor connected to:", u.String())
	fmt.Println("Waiting for events...")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			fmt.Println("read error:", err)
			return
		}
		var ev models.EngagementEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			fmt.Printf("RAW: %s\n", msg)
			continue
		}
		ts := time.Unix(ev.Timestamp, 0).Format(time.RFC3339)
		fmt.Printf("%s %-20s target=%s count=%d actor=%s\n", ts, ev.Type, ev.TargetID, ev.Count, ev.ActorID)
	}
}
