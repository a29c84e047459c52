package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/i474232898/forecast-dashboard/internal/chart"
)

const (
	writeWait    = 10 * time.Second
	helloTimeout = 10 * time.Second
)

var ErrClosed = errors.New("live session closed")

// Session is one connected browser page.
type Session struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex

	mu          sync.Mutex
	geolocation bool
	containers  map[string]*Container
	engines     map[string]*Engine
	locate      chan Message
	onProfile   func(string)

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn) *Session {
	return &Session{
		id:         uuid.NewString(),
		conn:       conn,
		containers: make(map[string]*Container),
		engines:    make(map[string]*Engine),
		done:       make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Done is closed when the connection ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// OnProfile registers the callback for profile selections made in the page.
func (s *Session) OnProfile(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProfile = fn
}

// Send writes one message.
func (s *Session) Send(msg Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Container returns the page element with the given id.
func (s *Session) Container(target string) *Container {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.containers[target]; ok {
		return c
	}
	c := &Container{id: target, observers: make(map[int]func(chart.Size))}
	s.containers[target] = c
	return c
}

// Factory creates browser engines bound to this session's containers.
func (s *Session) Factory() chart.Factory {
	return func(c chart.Container) (chart.Engine, error) {
		e := &Engine{session: s, target: c.ID()}
		s.mu.Lock()
		if _, ok := s.engines[e.target]; ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("engine already bound to %s", e.target)
		}
		s.engines[e.target] = e
		s.mu.Unlock()

		if err := s.Send(Message{Type: TypeInit, Target: e.target}); err != nil {
			s.dropEngine(e.target)
			return nil, err
		}
		return e, nil
	}
}

func (s *Session) dropEngine(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, target)
}

func (s *Session) readLoop() {
	defer s.Close()

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ERROR: live session %s read: %v", s.id, err)
			}
			return
		}
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg Message) {
	switch msg.Type {
	case TypeHello:
		s.mu.Lock()
		s.geolocation = msg.Geolocation != nil && *msg.Geolocation
		s.mu.Unlock()

	case TypePosition, TypePositionError:
		s.mu.Lock()
		ch := s.locate
		s.locate = nil
		s.mu.Unlock()
		if ch == nil {
			log.Printf("DEBUG: live session %s: unsolicited %s", s.id, msg.Type)
			return
		}
		ch <- msg

	case TypeSize:
		s.mu.Lock()
		c := s.containers[msg.Target]
		s.mu.Unlock()
		if c == nil {
			c = s.Container(msg.Target)
		}
		c.resized(msg.size())

	case TypeEvent:
		s.mu.Lock()
		e := s.engines[msg.Target]
		s.mu.Unlock()
		if e == nil {
			log.Printf("DEBUG: live session %s: event for unknown chart %s", s.id, msg.Target)
			return
		}
		e.emit(msg)

	case TypeProfile:
		s.mu.Lock()
		fn := s.onProfile
		s.mu.Unlock()
		if fn != nil && msg.Profile != "" {
			fn(msg.Profile)
		}

	default:
		log.Printf("DEBUG: live session %s: unknown message type %q", s.id, msg.Type)
	}
}

// Handler upgrades requests to websocket sessions. serve runs once the page
// has said hello and the session is closed when it returns.
func Handler(serve func(ctx context.Context, s *Session)) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ERROR: websocket upgrade: %v", err)
			return
		}

		s := newSession(conn)
		defer s.Close()

		if err := s.awaitHello(); err != nil {
			log.Printf("ERROR: live session %s: %v", s.id, err)
			return
		}
		go s.readLoop()

		log.Printf("INFO: live session %s connected from %s", s.id, r.RemoteAddr)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-s.done
			cancel()
		}()
		serve(ctx, s)
		cancel()
		log.Printf("INFO: live session %s closed", s.id)
	}
}

func (s *Session) awaitHello() error {
	if err := s.conn.SetReadDeadline(time.Now().Add(helloTimeout)); err != nil {
		return err
	}
	var msg Message
	if err := s.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Type != TypeHello {
		return fmt.Errorf("expected hello, got %q", msg.Type)
	}
	s.dispatch(msg)
	return s.conn.SetReadDeadline(time.Time{})
}
