package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/gbslib/gbsplayer/player"
	"github.com/gbslib/gbsplayer/player/backend"
	"github.com/gbslib/gbsplayer/player/backend/ebitenaudio"
	"github.com/gbslib/gbsplayer/player/backend/sdl2"
	"github.com/gbslib/gbsplayer/player/backend/wav"
	"github.com/gbslib/gbsplayer/player/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbsplayer"
	app.Description = "A Game Boy Sound (GBS) file player"
	app.Usage = "gbsplayer --gbs <file> [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "gbs",
			Usage: "Path to the GBS file",
		},
		cli.IntFlag{
			Name:  "song",
			Usage: "1-based song index to play (default: the file's configured first song)",
		},
		cli.IntFlag{
			Name:  "seconds",
			Usage: "How many seconds to render",
			Value: 60,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Render to a WAV file instead of opening a live audio device",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "WAV output path (used with --headless)",
			Value: "out.wav",
		},
		cli.BoolFlag{
			Name:  "list-songs",
			Usage: "Print the file's song count and configured first song, then exit",
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Use the SDL2 audio sink instead of the default ebiten one (requires -tags sdl2)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbsplayer failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	gbsPath := c.String("gbs")
	if gbsPath == "" {
		if c.NArg() > 0 {
			gbsPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no GBS path provided")
		}
	}

	data, err := os.ReadFile(gbsPath)
	if err != nil {
		return fmt.Errorf("failed to read gbs file: %w", err)
	}

	p, err := player.LoadGBS(data)
	if err != nil {
		return err
	}

	if c.Bool("list-songs") {
		fmt.Printf("%s — %d song(s), first song %d\n", p.Title(), p.SongCount(), p.CurrentSong())
		return nil
	}

	if song := c.Int("song"); song > 0 {
		p.PlaySong(song)
	}

	var sink backend.AudioSink
	if c.Bool("headless") {
		sink = wav.New(c.String("out"))
	} else if c.Bool("sdl2") {
		sink = sdl2.New()
	} else {
		sink = ebitenaudio.New()
	}

	if err := sink.Init(timing.SampleRate); err != nil {
		return fmt.Errorf("failed to initialize audio sink: %w", err)
	}
	defer sink.Close()

	totalFrames := c.Int("seconds") * timing.SampleRate
	buf := make([]int8, 2*timing.RingBufferSize)
	rendered := 0

	slog.Info("rendering", "title", p.Title(), "song", p.CurrentSong(), "seconds", c.Int("seconds"))

	for rendered < totalFrames && !p.SongEnded() {
		p.FillBuffer()
		n := p.ReadSamples(buf)
		if n == 0 {
			break
		}
		sink.Samples(buf[:2*n])
		rendered += n
	}

	slog.Info("render complete", "frames", rendered)
	return nil
}
