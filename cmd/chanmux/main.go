package main

import (
	"context"
	"log"
	"os"
)

func main() {
	root := &Command{
		Usage: "chanmux",
		Long:  `chanmux is a utility for running and poking at channel multiplexers`,
	}

	root.AddCommand(serveCmd)
	root.AddCommand(sendCmd)
	root.AddCommand(proxyCmd)

	if err := Execute(context.Background(), root, os.Args[1:]); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
