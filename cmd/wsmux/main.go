// Command wsmux runs a websocket server and logs the merged events of all
// connected clients, optionally echoing their messages back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JohanWinther/wsmux"
	"github.com/JohanWinther/wsmux/internal/config"
	"github.com/JohanWinther/wsmux/internal/logging"
	"github.com/JohanWinther/wsmux/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config is the environment of the wsmux command.
type Config struct {
	Server  server.Config  `envPrefix:"WSMUX_"`
	Logging logging.Config `envPrefix:"WSMUX_LOG_"`
	Echo    bool           `env:"WSMUX_ECHO" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wsmux:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	cfg.Logging.ApplyDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return err
	}
	log := logging.New(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.Serve(cfg.Server, server.WithLogger(log))
	if err != nil {
		return err
	}
	components := newComponents(srv, cfg.Echo, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Wait)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		return components.Stop()
	})
	return g.Wait()
}

// newComponents starts the event consumer. The block stops in reverse, so
// the consumer quits before the server closes the sockets.
func newComponents(srv *server.Server, echo bool, log zerolog.Logger) *wsmux.Block {
	components := wsmux.NewBlock("wsmux")
	components.Add(srv, startConsumer(srv, echo, log))
	return components
}

// consumer runs consume in the background as a Component.
type consumer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startConsumer(srv *server.Server, echo bool, log zerolog.Logger) *consumer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &consumer{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		consume(ctx, srv, echo, log)
	}()
	return c
}

// Stop ends the event loop and waits for it to return.
func (c *consumer) Stop() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *consumer) IsRunning() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

var _ wsmux.Component = (*consumer)(nil)

// consume handles every event until ctx is done.
func consume(ctx context.Context, srv *server.Server, echo bool, log zerolog.Logger) {
	for ev := range srv.EventsContext(ctx) {
		entry := log.Info().Str("socket", ev.Socket.ID).Stringer("event", ev.Kind)
		switch ev.Kind {
		case server.EventConnect:
			entry.Stringer("remote", ev.Socket.RemoteAddr()).Msg("Client connected")
		case server.EventText:
			entry.Str("text", ev.Text).Msg("Message")
		case server.EventBinary:
			entry.Int("bytes", len(ev.Data)).Msg("Message")
		case server.EventClose:
			entry.Int("code", ev.Code).Str("reason", ev.Reason).Msg("Client disconnected")
		}

		if !echo {
			continue
		}
		var err error
		switch ev.Kind {
		case server.EventText:
			err = ev.Socket.WriteText(ev.Text)
		case server.EventBinary:
			err = ev.Socket.WriteBinary(ev.Data)
		}
		if err != nil {
			log.Warn().Err(err).Str("socket", ev.Socket.ID).Msg("Echo failed")
		}
	}
}
