package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/progrium/chanmux/mux"
)

var sendCmd = &Command{
	Usage: "send <url> <message> [key=value ...]",
	Short: "send a message on a new channel and print the replies",
	Args:  MinArgs(2),
	Run: func(ctx context.Context, args []string) {
		log.SetOutput(os.Stderr)
		cfg, err := config(args[2:])
		fatal(err)

		m, err := dial(args[0], cfg)
		fatal(err)
		defer m.Close()

		replies := make(chan []byte, 16)
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		ch, err := m.Open(ctx, nil, mux.ListenerFunc(func(data []byte) {
			replies <- data
		}))
		fatal(err)
		defer ch.Close()

		msg := args[1]
		fatal(ch.Send([]byte(msg)))

		var got strings.Builder
		for got.Len() < len(msg) {
			select {
			case data := <-replies:
				got.Write(data)
			case <-ctx.Done():
				log.Fatal("timed out waiting for a reply")
			}
		}
		fmt.Println(got.String())
	},
}
