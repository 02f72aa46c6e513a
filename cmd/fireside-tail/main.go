// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// fireside-tail joins one or more chat rooms and prints their event
// streams as structured log lines. With capture enabled it also
// records every raw push frame to a per-room capture file for later
// replay; --dump prints a capture file and exits.
//
// Configuration comes from a YAML file named by FIRESIDE_CONFIG or
// --config; see lib/config for the schema.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/firesidehq/fireside/chat"
	"github.com/firesidehq/fireside/lib/config"
	"github.com/firesidehq/fireside/lib/framelog"
	"github.com/firesidehq/fireside/stream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("fireside-tail", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to fireside.yaml (default: $FIRESIDE_CONFIG)")
	record := flagSet.Bool("record", false, "capture raw frames regardless of capture.enabled")
	dumpPath := flagSet.String("dump", "", "print the contents of a capture file and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			flagSet.PrintDefaults()
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if *dumpPath != "" {
		return dumpCapture(*dumpPath)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *record {
		cfg.Capture.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureCaptureDir(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Capture writers are created before the client so the frame
	// observer can look them up without locking: the map is read-only
	// once the client exists.
	writers := make(map[int]*framelog.Writer)
	if cfg.Capture.Enabled {
		stamp := time.Now().UTC().Format("20060102T150405")
		for _, roomID := range cfg.Rooms {
			writer, err := framelog.Create(cfg.CaptureFile(roomID, stamp))
			if err != nil {
				return err
			}
			defer writer.Close()
			writers[roomID] = writer
		}
	}

	clientConfig := chat.ClientConfig{
		BaseURL: cfg.BaseURL,
		Logger:  logger,
	}
	if cfg.Capture.Enabled {
		clientConfig.FrameObserver = func(roomID int, payload []byte) {
			writer, ok := writers[roomID]
			if !ok {
				return
			}
			err := writer.Append(framelog.Record{
				ReceivedAt: time.Now().UnixMilli(),
				RoomID:     roomID,
				Payload:    payload,
			})
			if err != nil {
				logger.Error("frame capture failed", "room", roomID, "error", err)
			}
		}
	}
	client, err := chat.NewClient(clientConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	rooms := make([]*chat.Room, 0, len(cfg.Rooms))
	for _, roomID := range cfg.Rooms {
		room, err := client.JoinRoom(ctx, roomID)
		if err != nil {
			return err
		}
		printEvents(logger.With("room", roomID), room)
		rooms = append(rooms, room)
	}

	// Run until interrupted or every room's socket has failed.
	done := make(chan struct{})
	go func() {
		for _, room := range rooms {
			<-room.Done()
		}
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}

	for _, room := range rooms {
		if err := room.Err(); err != nil {
			return fmt.Errorf("room %d: %w", room.ID(), err)
		}
	}
	return nil
}

// printEvents registers a log-line listener for every event kind.
func printEvents(logger *slog.Logger, room *chat.Room) {
	registry := room.Registry()
	stream.On(registry, func(e stream.MessagePosted) {
		logger.Info("message posted", "id", e.Message.ID, "user", e.Message.Username, "content", e.Message.Content)
	})
	stream.On(registry, func(e stream.MessageEdited) {
		logger.Info("message edited", "id", e.Message.ID, "user", e.Message.Username, "edits", e.Message.Edits, "content", e.Message.Content)
	})
	stream.On(registry, func(e stream.MessageDeleted) {
		logger.Info("message deleted", "id", e.Message.ID)
	})
	stream.On(registry, func(e stream.MessageStarred) {
		logger.Info("message starred", "id", e.Message.ID, "stars", e.Message.Stars)
	})
	stream.On(registry, func(e stream.MessagesMoved) {
		logger.Info("messages moved",
			"count", len(e.Messages),
			"from", e.SourceRoomID, "to", e.DestRoomID,
			"mover", e.MoverUsername)
	})
	stream.On(registry, func(e stream.UserEntered) {
		logger.Info("user entered", "user_id", e.UserID, "user", e.Username)
	})
	stream.On(registry, func(e stream.UserLeft) {
		logger.Info("user left", "user_id", e.UserID, "user", e.Username)
	})
}

// dumpCapture prints the records of a capture file, one line each.
func dumpCapture(path string) error {
	reader, err := framelog.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		received := time.UnixMilli(record.ReceivedAt).UTC().Format(time.RFC3339Nano)
		fmt.Printf("%s room=%d %s\n", received, record.RoomID, record.Payload)
	}
}
