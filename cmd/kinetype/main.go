package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/lixenwraith/kinetype/audio"
	"github.com/lixenwraith/kinetype/config"
	"github.com/lixenwraith/kinetype/engine"
	"github.com/lixenwraith/kinetype/script"
	"github.com/lixenwraith/kinetype/terminal"
)

var (
	musicFlag  string
	colorFlag  = flag.String("color", "", "Color mode: auto, truecolor, 256 (overrides config)")
	configFlag string
)

func init() {
	flag.StringVar(&musicFlag, "m", "", "Path to a background track (MP3 or WAV)")
	flag.StringVar(&musicFlag, "music", "", "Path to a background track (MP3 or WAV)")
	flag.StringVar(&configFlag, "c", "", "Path to a YAML configuration file")
	flag.StringVar(&configFlag, "config", "", "Path to a YAML configuration file")
}

func main() {
	// Panic recovery: restore the terminal before anything is printed
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mKINETYPE CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <script.clip>\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		// Errors go to stdout in red, per the player's contract
		fmt.Printf("\x1b[31m%v\x1b[0m\n", err)
		os.Exit(1)
	}
}

func run(scriptPath string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	lines := splitLines(string(data))

	elements, err := script.Parse(lines)
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	colorMode := resolveColorMode(cfg.ColorMode)

	var sink engine.AudioSink
	if musicFlag != "" && cfg.Audio.Enabled {
		player, err := audio.NewPlayer(musicFlag, cfg.Audio.VolumeDb)
		if err != nil {
			return err
		}
		sink = player
	}

	term := terminal.New()
	if err := term.Init(); err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	defer term.Fini()

	eng := engine.New(term, elements, engine.Config{
		FrameInterval: cfg.FrameInterval(),
		DefaultBPM:    cfg.DefaultBPM,
		ColorMode:     colorMode,
		StartPrompt:   cfg.StartPrompt,
	})
	if sink != nil {
		eng.SetAudioSink(sink)
	}

	return eng.Run(context.Background())
}

func resolveColorMode(configured string) terminal.ColorMode {
	mode := configured
	if *colorFlag != "" {
		mode = *colorFlag
	}
	switch mode {
	case "256":
		return terminal.ColorMode256
	case "truecolor", "true", "24bit":
		return terminal.ColorModeTrueColor
	default:
		return terminal.DetectColorMode()
	}
}

// splitLines decodes the script as UTF-8 lines, tolerating CRLF
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
