// Package main provides the icachesim command line tool. It replays RISC-V
// disassembly listings through a set-associative instruction cache model and
// reports per-address hits and misses.
package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("Could not load .env")
	}

	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
