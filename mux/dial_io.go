package mux

import (
	"io"
	"os"
)

// DialIO establishes a multiplexer using a WriteCloser and ReadCloser.
func DialIO(out io.WriteCloser, in io.ReadCloser, cfg Config) (*Multiplexer, error) {
	return NewConn(&ioduplex{out, in}, cfg)
}

// DialStdio establishes a multiplexer using Stdout and Stdin.
func DialStdio(cfg Config) (*Multiplexer, error) {
	return DialIO(os.Stdout, os.Stdin, cfg)
}
