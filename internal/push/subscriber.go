package push

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// readLimit bounds a single message; execution output can be large.
const readLimit = 4 << 20

// Handler receives events in arrival order on the subscriber goroutine.
type Handler func(Event)

// Subscriber holds one persistent connection to the push channel.
type Subscriber struct {
	url            string
	reconnectDelay time.Duration
	log            zerolog.Logger
}

// NewSubscriber creates a subscriber for url. A zero reconnectDelay disables
// redialing: Run returns after the first disconnect.
func NewSubscriber(url string, reconnectDelay time.Duration, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		url:            url,
		reconnectDelay: reconnectDelay,
		log:            log.With().Str("component", "push").Logger(),
	}
}

// Run dials the channel and delivers events to h until ctx is cancelled.
// Connect and Disconnect are delivered around each successful session.
func (s *Subscriber) Run(ctx context.Context, h Handler) error {
	for {
		if err := s.session(ctx, h); err != nil {
			s.log.Debug().Err(err).Str("url", s.url).Msg("push session ended")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.reconnectDelay <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Subscriber) session(ctx context.Context, h Handler) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(readLimit)

	s.log.Info().Str("url", s.url).Msg("push channel connected")
	h(Event{Name: EventConnect})
	defer h(Event{Name: EventDisconnect})

	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			s.log.Info().Err(err).Msg("push channel disconnected")
			return err
		}
		evt, err := ParseEvent(msg)
		if err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed push message")
			continue
		}
		h(evt)
	}
}
