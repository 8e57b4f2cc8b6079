package client

import (
	"context"

	"github.com/markis/bizcoach/internal/coach"
	"github.com/markis/bizcoach/internal/segment"
	"github.com/markis/bizcoach/internal/server"
)

// DefaultMaxHistory matches the server's default history limit.
const DefaultMaxHistory = 20

// Session is a multi-turn practice conversation within one scene.
type Session struct {
	client     *Client
	scene      string
	history    []coach.Turn
	maxHistory int
}

// NewSession starts a conversation. A non-empty opening is recorded as the partner's
// first line.
func NewSession(c *Client, scene, opening string) *Session {
	s := &Session{client: c, scene: scene, maxHistory: DefaultMaxHistory}
	if opening != "" {
		s.history = append(s.history, coach.Turn{Role: coach.RolePartner, Text: opening})
	}
	return s
}

func (s *Session) Scene() string {
	return s.scene
}

// History returns a copy of the turns so far.
func (s *Session) History() []coach.Turn {
	return append([]coach.Turn(nil), s.history...)
}

// Send asks for a coached reply to message. The exchange joins the history only when
// the partner produced a next line.
func (s *Session) Send(ctx context.Context, message string, onSection func(segment.Snapshot)) (segment.Snapshot, error) {
	snap, err := s.client.Ask(ctx, server.ChatRequest{
		Scene:       s.scene,
		UserMessage: message,
		History:     s.History(),
	}, onSection)
	if err != nil {
		return snap, err
	}

	if snap.Next != "" {
		s.history = append(s.history,
			coach.Turn{Role: coach.RoleUser, Text: message},
			coach.Turn{Role: coach.RolePartner, Text: snap.Next},
		)
		if n := len(s.history); s.maxHistory > 0 && n > s.maxHistory {
			s.history = s.history[n-s.maxHistory:]
		}
	}
	return snap, nil
}
