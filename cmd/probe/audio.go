package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/probe/audio"
	"github.com/poiesic/probe/core"
	"github.com/urfave/cli/v2"
)

func transcribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "transcribe",
		Usage:     "Transcribe an audio file to text",
		ArgsUsage: "FILE",
		Action:    transcribeAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Usage: "Context prompt passed to the transcription model"},
		},
	}
}

func synthesizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "synthesize",
		Usage:     "Convert text to speech",
		ArgsUsage: "TEXT...",
		Action:    synthesizeAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "voice", Usage: "Voice to speak with"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file", Value: "speech.mp3"},
		},
	}
}

func voicesCommand() *cli.Command {
	return &cli.Command{
		Name:   "voices",
		Usage:  "List available synthesis voices",
		Action: voicesAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "language", Usage: "Voice language", Value: "en-US"},
		},
	}
}

func cliApp(prompt, voice string) *core.App {
	return &core.App{
		Id:        1,
		Name:      "cli",
		PrePrompt: prompt,
		TextToSpeech: core.TextToSpeechSettings{
			Enabled: true,
			Voice:   voice,
		},
	}
}

func transcribeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one audio file, got %d", c.NArg())
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewAudioService()
	if err != nil {
		return err
	}
	upload := &audio.Upload{Filename: filepath.Base(path), Data: data}
	transcript, err := service.Transcribe(c.Context, cliApp(c.String("prompt"), ""), upload)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, transcript.Text)
	return nil
}

func synthesizeAction(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewAudioService()
	if err != nil {
		return err
	}
	speech, err := service.Synthesize(c.Context, cliApp("", c.String("voice")), text)
	if err != nil {
		return err
	}

	out := c.String("out")
	if err := os.WriteFile(out, speech, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "Wrote %d bytes to %s\n", len(speech), out)
	return nil
}

func voicesAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewAudioService()
	if err != nil {
		return err
	}
	voices, err := service.Voices(c.Context, cliApp("", ""), c.String("language"))
	if err != nil {
		return err
	}
	for _, v := range voices {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", v.Value, v.Name)
	}
	return nil
}
