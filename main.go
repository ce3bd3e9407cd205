package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/showctl/cueline/backend"
	"github.com/showctl/cueline/config"
	"github.com/showctl/cueline/logger"
	"github.com/showctl/cueline/session"
	"github.com/showctl/cueline/trigger"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, warning or info")
	sessionPath := flag.String("session", "", "session document to load on startup")
	oscListen := flag.String("osc-listen", "", "UDP address for OSC triggers, e.g. :9000")
	midiPort := flag.String("midi-port", "", "MIDI input port substring match")
	flag.Parse()

	log := logger.GetProjectLogger()
	if err := logger.SetLevel(*logLevel); err != nil {
		log.Fatalf("error setting log level. err='%v'", err)
	}

	ctx := context.Background()
	Run(ctx, *sessionPath, *oscListen, *midiPort)
}

// Run starts the engine
func Run(ctx context.Context, sessionPath, oscListen, midiPort string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer midi.CloseDriver()

	log := logger.GetProjectLogger()
	wg := sync.WaitGroup{}

	log.Info("Initializing config...")
	cfg, err := config.NewCuelineConfig()
	if err != nil {
		log.Fatalf("error creating config. err='%v'", err)
	}
	if oscListen != "" {
		cfg.OSCListenAddr = oscListen
	}
	if midiPort != "" {
		cfg.MIDIPortMatch = midiPort
	}

	log.Info("Initializing session...")
	s, err := session.New(cfg)
	if err != nil {
		log.Fatalf("error creating session. err='%v'", err)
	}

	if sessionPath != "" {
		log.Infof("Loading session from %s...", sessionPath)
		doc, err := session.LoadDocument(sessionPath)
		if err != nil {
			log.Fatalf("error loading session document. err='%v'", err)
		}
		// Real playback rendering stays behind the backend contract; the
		// in-memory backend keeps the engine usable without an audio stack.
		if err := s.LoadDocument(doc, func() backend.Backend {
			return backend.NewMock(5 * time.Minute)
		}); err != nil {
			log.Fatalf("error building session. err='%v'", err)
		}
	}

	log.Info("Starting session loop...")
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()

	if cfg.OSCListenAddr != "" {
		osc, err := trigger.StartOSC(s.Router(), cfg.OSCListenAddr)
		if err != nil {
			log.Errorf("could not start OSC listener: %v", err)
		} else {
			defer osc.Close()
		}
	}

	if cfg.MIDIPortMatch != "" {
		ml, err := trigger.StartMIDI(s.Router(), cfg.MIDIPortMatch)
		if err != nil {
			log.Errorf("could not start MIDI listener: %v", err)
		} else {
			defer ml.Close()
		}
	}

	// Thin operator console on stdin: "go", transport words, or raw key
	// codes routed through the trigger table.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch line := scanner.Text(); line {
			case "go":
				s.Go()
			case "stop":
				s.StopAll()
			case "pause":
				s.PauseAll()
			case "restart":
				s.RestartAll()
			case "quit":
				cancel()
				return
			default:
				s.HandleKey(line)
			}
		}
	}()

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("shutting down cueline")
	cancel()
	wg.Wait()
}
