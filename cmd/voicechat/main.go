// Command voicechat is a terminal client for hands-free conversation with
// the realtime endpoint through the relay. Keys: c toggles continuous
// mode, i interrupts the assistant, q or Esc quits.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/eiannone/keyboard"
	"github.com/joho/godotenv"

	"github.com/MiniMax-OpenPlatform/voice-chat-app-realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := realtime.Config{
		RelayURL: envOr("VOICECHAT_RELAY_URL", "ws://localhost:8080"),
		APIKey:   os.Getenv("VOICECHAT_API_KEY"),
		Token:    os.Getenv("VOICECHAT_TOKEN"),
		Model:    os.Getenv("VOICECHAT_MODEL"),
		Voice:    envOr("VOICECHAT_VOICE", "female-shaonv"),
		Logger:   realtime.NewLoggerFromEnv(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("connecting...")
	client, err := realtime.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Println("connected")

	speaker, err := realtime.NewSpeaker(realtime.SampleRate, cfg.Logger)
	if err != nil {
		return err
	}
	defer speaker.Close()

	scheduler := realtime.NewScheduler(speaker, realtime.SampleRate, cfg.Logger)
	defer scheduler.Close()

	coord := realtime.NewCoordinator(ctx, client, realtime.PlayerFromScheduler(scheduler), realtime.VADConfig{}, cfg.Logger)
	coord.Bind(client)
	scheduler.OnDrained(coord.HandlePlaybackDrained)

	mic := realtime.NewMicrophone(realtime.SampleRate, realtime.CaptureFrameSize, coord.HandleFrame, cfg.Logger)
	coord.UseSource(mic)

	coord.OnUserTranscript(func(text string) {
		fmt.Printf("\nyou: %s\n", text)
	})
	coord.OnTranscriptDelta(func(delta string) {
		fmt.Print(delta)
	})
	coord.OnAssistantText(func(delta string) {
		fmt.Print(delta)
	})
	coord.OnTurnComplete(func(turn *realtime.AssistantTurn) {
		fmt.Println()
	})
	coord.OnVolume(func(v float64) {
		if coord.Continuous() && !coord.Responding() {
			fmt.Printf("\rmic %-20s", strings.Repeat("|", int(v*20)))
		}
	})
	coord.OnContinuousChange(func(on bool) {
		if on {
			fmt.Println("\n[listening — speak freely, press c to stop]")
		} else {
			fmt.Println("\n[continuous mode off]")
		}
	})
	client.OnError(func(ev realtime.ErrorEvent) {
		fmt.Printf("\nserver error: %s\n", ev.Error.Message)
	})
	client.OnDisconnected(func(err error) {
		fmt.Printf("\ndisconnected: %v\n", err)
		cancel()
	})

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Println("c: toggle continuous  i: interrupt  q/Esc: quit")

	keys := make(chan rune, 1)
	go func() {
		for {
			ch, key, err := keyboard.GetKey()
			if err != nil {
				close(keys)
				return
			}
			if key == keyboard.KeyEsc {
				ch = 'q'
			}
			select {
			case keys <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-keys:
			if !ok {
				return nil
			}
			switch ch {
			case 'q':
				return nil
			case 'c':
				if coord.Continuous() {
					_ = coord.ExitContinuous()
				} else if err := coord.EnterContinuous(); err != nil {
					fmt.Printf("\nmicrophone: %v\n", err)
				}
			case 'i':
				coord.Interrupt()
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
