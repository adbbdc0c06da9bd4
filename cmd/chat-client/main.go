// chat-client is a minimal terminal front-end for the room engine. It
// plays the part of the external UI layer: it acquires an identity from
// flags, hands {roomId, localUser} to a session, renders snapshots to
// stdout, and forwards stdin lines as sends.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"chat-room-client/internal/chat"
	"chat-room-client/internal/config"
)

func main() {
	cfg := config.Load()

	room := flag.String("room", "", "room id to join")
	userID := flag.String("user", "", "local user id (generated when empty)")
	name := flag.String("name", "Anonymous", "display name")
	server := flag.String("server", cfg.ServerURL, "room server base URL")
	flag.Parse()

	if *room == "" {
		fmt.Fprintln(os.Stderr, "usage: chat-client -room <id> [-user <id>] [-name <name>]")
		os.Exit(2)
	}
	if *userID == "" {
		*userID = uuid.NewString()
	}

	user := chat.User{ID: *userID, Name: *name}

	history := chat.NewHistoryClient(*server, cfg.HistoryTimeout)
	channel, err := chat.NewChannel(*server+"/ws", *room, user, chat.ChannelOptions{})
	if err != nil {
		log.Fatalf("channel setup failed: %v", err)
	}

	session, err := chat.NewSession(*room, user, history, channel, chat.SessionOptions{
		AckTimeout: cfg.AckTimeout,
	})
	if err != nil {
		log.Fatalf("cannot enter room: %v", err)
	}
	defer session.Close()

	session.SetNotify(func(snap chat.Snapshot) {
		render(snap, user)
	})

	if err := session.Start(context.Background()); err != nil {
		log.Fatalf("session start failed: %v", err)
	}

	fmt.Printf("joined room %s as %s, type to chat\n", *room, user.Name)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			return
		}
		if err := session.Send(text); err != nil {
			if chat.CodeOf(err) == chat.ErrorCodeSendUncertain {
				fmt.Println("! delivery uncertain, message may not have reached the room")
				continue
			}
			log.Printf("send failed: %v", err)
		}
	}
}

func render(snap chat.Snapshot, local chat.User) {
	if len(snap.Messages) == 0 {
		fmt.Printf("[%s] %d online\n", snap.State, snap.PresenceCount)
		return
	}

	m := snap.Messages[len(snap.Messages)-1]
	author := m.AuthorName
	if m.AuthorID == local.ID {
		author = "You"
	}
	marker := ""
	switch m.Delivery {
	case chat.DeliveryPending:
		marker = " …"
	case chat.DeliveryUncertain:
		marker = " ?"
	}
	fmt.Printf("[%s|%d online] %s: %s%s\n", snap.State, snap.PresenceCount, author, m.Text, marker)
}
