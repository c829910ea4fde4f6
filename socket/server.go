package socket

import (
	"fmt"
	"log"

	socketio "github.com/googollee/go-socket.io"

	"interview_server/models"
)

// Server is the realtime half of the notification bridge. Guests subscribe
// to their own participant channel using the waiting ticket; hosts subscribe
// to the room's host channel after their identity is verified. Registry
// events are broadcast to those channels; the registry never waits on a
// client.
type Server struct {
	io *socketio.Server

	// Authorize validates a bearer token and returns the user id.
	Authorize func(token string) (string, bool)
	// IsModerator reports whether the user may watch the host channel.
	IsModerator func(roomID, userID string) bool
	// VerifyTicket checks the guest's ticket secret against the registry
	// before the guest may watch its own participant channel.
	VerifyTicket func(roomID, identity, secret string) bool
}

func NewServer(authorize func(string) (string, bool), isModerator func(string, string) bool) *Server {
	s := &Server{
		io:          socketio.NewServer(nil),
		Authorize:   authorize,
		IsModerator: isModerator,
	}

	s.io.OnConnect("/", func(c socketio.Conn) error {
		log.Println("socket connected:", c.ID())
		return nil
	})

	// Guests join their participant channel with the ticket they received
	// from redemption; the secret proves the slot is theirs.
	s.io.OnEvent("/", "joinAsGuest", func(c socketio.Conn, data map[string]string) {
		roomID, identity, secret := data["roomId"], data["identity"], data["ticketSecret"]
		if roomID == "" || identity == "" {
			log.Println("invalid joinAsGuest payload from", c.ID())
			return
		}
		if s.VerifyTicket == nil || !s.VerifyTicket(roomID, identity, secret) {
			log.Println("rejected joinAsGuest for room", roomID)
			return
		}
		c.Join(guestChannel(roomID, identity))
	})

	// Hosts join the room's host channel to see the waiting queue move.
	s.io.OnEvent("/", "joinAsHost", func(c socketio.Conn, data map[string]string) {
		roomID, token := data["roomId"], data["token"]
		userID, ok := s.Authorize(token)
		if !ok || !s.IsModerator(roomID, userID) {
			log.Println("rejected joinAsHost for room", roomID)
			return
		}
		c.Join(hostChannel(roomID))
	})

	s.io.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("socket disconnected:", c.ID(), reason)
	})

	return s
}

// Notify implements services.Notifier. Guest-directed events go to the
// affected guest's channel; the host channel sees everything so the waiting
// list stays current.
func (s *Server) Notify(ev models.RoomEvent) {
	switch ev.Type {
	case models.EventGuestWaiting:
		s.io.BroadcastToRoom("/", hostChannel(ev.RoomID), ev.Type, ev)
	default:
		s.io.BroadcastToRoom("/", guestChannel(ev.RoomID, ev.Identity), ev.Type, ev)
		s.io.BroadcastToRoom("/", hostChannel(ev.RoomID), ev.Type, ev)
	}
}

// Serve runs the socket.io event loop; it returns when Close is called.
func (s *Server) Serve() error {
	return s.io.Serve()
}

func (s *Server) Close() error {
	return s.io.Close()
}

// Handler exposes the underlying HTTP handler for mounting at /socket.io/.
func (s *Server) Handler() *socketio.Server {
	return s.io
}

func guestChannel(roomID, identity string) string {
	return fmt.Sprintf("participant:%s:%s", roomID, identity)
}

func hostChannel(roomID string) string {
	return fmt.Sprintf("host:%s", roomID)
}
