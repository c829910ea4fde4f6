package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"interview_server/models"
)

// Notifier is the delivery half of the notification bridge. Implementations
// must be safe for concurrent use; they are invoked from dispatcher
// goroutines, never under a room lock.
type Notifier interface {
	Notify(event models.RoomEvent)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(models.RoomEvent) {}

// RoomRegistry owns the authoritative in-memory state of every live room:
// who is waiting, who is admitted, and at what permission level. Each room is
// its own unit of serialization; a mutation locks only that room's mutex, so
// unrelated rooms never contend. Events produced by a mutation are appended
// to the room's outbox under the lock and handed to the Notifier by a
// per-room dispatcher goroutine after the lock is released, so a slow push or
// mail provider can never stall an admission decision.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*roomState

	notifier       Notifier
	heartbeatGrace time.Duration
	waitingIdle    time.Duration
	now            func() time.Time

	stopReaper chan struct{}
	reaperDone chan struct{}
}

type roomState struct {
	mu           sync.Mutex
	room         models.Room
	participants map[string]*models.Participant
	outbox       []models.RoomEvent
	closed       bool

	wake chan struct{}
	done chan struct{}
}

// NewRoomRegistry builds a registry and starts its reaper. Close must be
// called to stop it.
func NewRoomRegistry(notifier Notifier, heartbeatGrace, waitingIdle time.Duration) *RoomRegistry {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	r := &RoomRegistry{
		rooms:          make(map[string]*roomState),
		notifier:       notifier,
		heartbeatGrace: heartbeatGrace,
		waitingIdle:    waitingIdle,
		now:            time.Now,
		stopReaper:     make(chan struct{}),
		reaperDone:     make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

// Close stops the reaper and deactivates every room.
func (r *RoomRegistry) Close() {
	close(r.stopReaper)
	<-r.reaperDone

	r.mu.Lock()
	states := make([]*roomState, 0, len(r.rooms))
	for id, st := range r.rooms {
		states = append(states, st)
		delete(r.rooms, id)
	}
	r.mu.Unlock()
	for _, st := range states {
		st.mu.Lock()
		st.closed = true
		st.mu.Unlock()
		close(st.done)
	}
}

// Activate registers a room that just went live.
func (r *RoomRegistry) Activate(room models.Room) {
	st := &roomState{
		room:         room,
		participants: make(map[string]*models.Participant),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	r.mu.Lock()
	if _, exists := r.rooms[room.ID]; exists {
		r.mu.Unlock()
		return
	}
	r.rooms[room.ID] = st
	r.mu.Unlock()
	go r.dispatch(st)
}

// Deactivate tears a room down when it ends: every remaining participant is
// kicked and the dispatcher is told to drain and exit.
func (r *RoomRegistry) Deactivate(roomID string) {
	r.mu.Lock()
	st, ok := r.rooms[roomID]
	if ok {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	st.closed = true
	for _, p := range st.participants {
		if p.ConnectionState == models.ConnectionStateLeft || p.ConnectionState == models.ConnectionStateKicked {
			continue
		}
		p.ConnectionState = models.ConnectionStateKicked
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventKicked,
			RoomID:   roomID,
			Identity: p.Identity,
		})
	}
	st.mu.Unlock()
	close(st.done)
}

// EnterWaitingRoom places a redeemed guest into the waiting queue. A
// returning identity re-attaches to its existing slot; a kicked or departed
// identity starts over in waiting (it got here by re-redeeming a still-valid
// invitation). Capacity is checked atomically with the insert, so the cap
// holds under concurrent redemptions. The second return reports whether this
// call created the slot: callers rolling back a failed redemption must only
// remove slots they created, never one they re-attached to.
func (r *RoomRegistry) EnterWaitingRoom(roomID, identity, displayName string, level models.PermissionLevel) (models.WaitingTicket, bool, error) {
	var (
		ticket  models.WaitingTicket
		created bool
	)
	err := r.withRoom(roomID, func(st *roomState) error {
		now := r.now()
		if p, ok := st.participants[identity]; ok {
			switch p.ConnectionState {
			case models.ConnectionStateWaiting, models.ConnectionStateAdmitted, models.ConnectionStateActive:
				// Reconnect: same slot, same secret, refreshed liveness.
				p.LastSeenAt = now
				ticket = ticketFor(p)
				return nil
			default:
				// Terminal session; fall through to a fresh waiting entry.
			}
		}

		if st.room.Settings.MaxParticipants > 0 && r.activeCountLocked(st) >= st.room.Settings.MaxParticipants {
			return ErrRoomFull
		}
		p := &models.Participant{
			RoomID:          roomID,
			Identity:        identity,
			DisplayName:     displayName,
			PermissionLevel: level,
			ConnectionState: models.ConnectionStateWaiting,
			JoinedAt:        now,
			LastSeenAt:      now,
			TicketSecret:    uuid.New().String(),
		}
		st.participants[identity] = p
		ticket = ticketFor(p)
		created = true
		snapshot := *p
		snapshot.TicketSecret = ""
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:        models.EventGuestWaiting,
			RoomID:      roomID,
			Identity:    identity,
			Participant: &snapshot,
		})
		return nil
	})
	return ticket, created, err
}

// Admit moves a waiting guest to admitted. Idempotent: admitting someone
// already admitted or active is a successful no-op, which resolves the
// double-click race without ever exceeding capacity.
func (r *RoomRegistry) Admit(roomID, callerIdentity, identity string) error {
	return r.withRoom(roomID, func(st *roomState) error {
		if err := r.requireModeratorLocked(st, callerIdentity); err != nil {
			return err
		}
		p, ok := st.participants[identity]
		if !ok {
			return ErrParticipantNotFound
		}
		switch p.ConnectionState {
		case models.ConnectionStateAdmitted, models.ConnectionStateActive:
			return nil
		case models.ConnectionStateWaiting:
		default:
			return ErrParticipantNotWaiting
		}
		p.ConnectionState = models.ConnectionStateAdmitted
		p.LastSeenAt = r.now()
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventAdmitted,
			RoomID:   roomID,
			Identity: identity,
		})
		return nil
	})
}

// Reject removes a waiting guest. Fails with ErrParticipantNotWaiting when
// the guest is no longer waiting, covering the race where they disconnected
// between the host's view refresh and the click.
func (r *RoomRegistry) Reject(roomID, callerIdentity, identity string) error {
	return r.withRoom(roomID, func(st *roomState) error {
		if err := r.requireModeratorLocked(st, callerIdentity); err != nil {
			return err
		}
		p, ok := st.participants[identity]
		if !ok {
			return ErrParticipantNotFound
		}
		if p.ConnectionState != models.ConnectionStateWaiting {
			return ErrParticipantNotWaiting
		}
		delete(st.participants, identity)
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventRejected,
			RoomID:   roomID,
			Identity: identity,
		})
		return nil
	})
}

// Kick terminates a participant's session. The identity keeps its (already
// accepted) invitation but must redeem a valid one again to come back, and
// lands back in waiting if it does.
func (r *RoomRegistry) Kick(roomID, callerIdentity, identity string) error {
	return r.withRoom(roomID, func(st *roomState) error {
		if err := r.requireModeratorLocked(st, callerIdentity); err != nil {
			return err
		}
		p, ok := st.participants[identity]
		if !ok {
			return ErrParticipantNotFound
		}
		switch p.ConnectionState {
		case models.ConnectionStateLeft, models.ConnectionStateKicked:
			return nil
		}
		p.ConnectionState = models.ConnectionStateKicked
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventKicked,
			RoomID:   roomID,
			Identity: identity,
		})
		return nil
	})
}

// removeWaiting retracts a waiting slot that was reserved for a redemption
// which then failed to commit. The host sees the guest leave rather than a
// phantom waiting row.
func (r *RoomRegistry) removeWaiting(roomID, identity string) error {
	return r.withRoom(roomID, func(st *roomState) error {
		p, ok := st.participants[identity]
		if !ok || p.ConnectionState != models.ConnectionStateWaiting {
			return ErrParticipantNotWaiting
		}
		delete(st.participants, identity)
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventLeft,
			RoomID:   roomID,
			Identity: identity,
		})
		return nil
	})
}

// SetPermission changes a participant's level. Co-host may only be granted by
// the room host, and nobody grants host at all; the closed enum keeps this a
// switch, not a string comparison.
func (r *RoomRegistry) SetPermission(roomID, callerIdentity, identity string, level models.PermissionLevel) error {
	if !level.Valid() {
		return ErrInvalidPermissionLevel
	}
	return r.withRoom(roomID, func(st *roomState) error {
		if err := r.requireModeratorLocked(st, callerIdentity); err != nil {
			return err
		}
		switch level {
		case models.PermissionHost:
			return ErrSelfEscalation
		case models.PermissionCoHost:
			if callerIdentity != st.room.HostUserID {
				return ErrSelfEscalation
			}
		}
		p, ok := st.participants[identity]
		if !ok {
			return ErrParticipantNotFound
		}
		p.PermissionLevel = level
		st.outbox = append(st.outbox, models.RoomEvent{
			Type:     models.EventPermissionChanged,
			RoomID:   roomID,
			Identity: identity,
		})
		return nil
	})
}

// Heartbeat refreshes a participant's liveness after proving ownership of the
// slot with the ticket secret. The first heartbeat after admission flips
// admitted to active. A wrong secret is reported exactly like an unknown
// participant, so the endpoint cannot be used to confirm an identity exists.
func (r *RoomRegistry) Heartbeat(roomID, identity, ticketSecret string) error {
	return r.withRoom(roomID, func(st *roomState) error {
		p, ok := st.participants[identity]
		if !ok || p.TicketSecret != ticketSecret {
			return ErrParticipantNotFound
		}
		switch p.ConnectionState {
		case models.ConnectionStateLeft, models.ConnectionStateKicked:
			return ErrParticipantNotFound
		case models.ConnectionStateAdmitted:
			p.ConnectionState = models.ConnectionStateActive
		}
		p.LastSeenAt = r.now()
		return nil
	})
}

// VerifyTicket reports whether the secret matches the live participant slot.
// The socket layer uses it to gate the participant channel.
func (r *RoomRegistry) VerifyTicket(roomID, identity, ticketSecret string) bool {
	verified := false
	err := r.withRoom(roomID, func(st *roomState) error {
		p, ok := st.participants[identity]
		verified = ok && p.TicketSecret != "" && p.TicketSecret == ticketSecret &&
			p.ConnectionState != models.ConnectionStateLeft &&
			p.ConnectionState != models.ConnectionStateKicked
		return nil
	})
	return err == nil && verified
}

// Snapshot returns a copy of the room and its participants for display.
// Callers get values, never pointers into registry state.
func (r *RoomRegistry) Snapshot(roomID string) (models.Room, []models.Participant, error) {
	r.mu.RLock()
	st, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return models.Room{}, nil, ErrRoomNotLive
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	room := st.room
	participants := make([]models.Participant, 0, len(st.participants))
	for _, p := range st.participants {
		participants = append(participants, *p)
	}
	return room, participants, nil
}

// IsModerator reports whether the identity may admit/reject/kick in the room.
func (r *RoomRegistry) IsModerator(roomID, identity string) bool {
	r.mu.RLock()
	st, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return r.requireModeratorLocked(st, identity) == nil
}

func (r *RoomRegistry) withRoom(roomID string, fn func(*roomState) error) error {
	r.mu.RLock()
	st, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotLive
	}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return ErrRoomNotLive
	}
	err := fn(st)
	pending := len(st.outbox) > 0
	st.mu.Unlock()

	if pending {
		select {
		case st.wake <- struct{}{}:
		default:
		}
	}
	return err
}

// requireModeratorLocked is the permission gate for host actions. The room
// host always passes; otherwise the caller must be an admitted co-host.
func (r *RoomRegistry) requireModeratorLocked(st *roomState, callerIdentity string) error {
	if callerIdentity == st.room.HostUserID {
		return nil
	}
	p, ok := st.participants[callerIdentity]
	if !ok {
		return ErrNotHost
	}
	switch p.ConnectionState {
	case models.ConnectionStateAdmitted, models.ConnectionStateActive:
	default:
		return ErrNotHost
	}
	if !p.PermissionLevel.CanModerate() {
		return ErrNotHost
	}
	return nil
}

func (r *RoomRegistry) activeCountLocked(st *roomState) int {
	count := 0
	for _, p := range st.participants {
		if p.CountsAgainstCapacity() {
			count++
		}
	}
	return count
}

func (r *RoomRegistry) dispatch(st *roomState) {
	for {
		select {
		case <-st.wake:
			r.flush(st)
		case <-st.done:
			r.flush(st)
			return
		}
	}
}

func (r *RoomRegistry) flush(st *roomState) {
	for {
		st.mu.Lock()
		events := st.outbox
		st.outbox = nil
		st.mu.Unlock()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			r.notifier.Notify(ev)
		}
	}
}

// reapLoop is the only proactive timer in the model: it turns silent
// participants into left (freeing their capacity slot) and expires guests who
// sat in the waiting room past the idle timeout. Invitation expiry stays
// lazy and is never handled here.
func (r *RoomRegistry) reapLoop() {
	defer close(r.reaperDone)
	interval := r.heartbeatGrace / 2
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopReaper:
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *RoomRegistry) reapOnce() {
	r.mu.RLock()
	states := make([]*roomState, 0, len(r.rooms))
	for _, st := range r.rooms {
		states = append(states, st)
	}
	r.mu.RUnlock()

	now := r.now()
	for _, st := range states {
		st.mu.Lock()
		if st.closed {
			st.mu.Unlock()
			continue
		}
		for _, p := range st.participants {
			var deadline time.Time
			switch p.ConnectionState {
			case models.ConnectionStateWaiting:
				deadline = p.LastSeenAt.Add(r.waitingIdle)
			case models.ConnectionStateAdmitted, models.ConnectionStateActive:
				deadline = p.LastSeenAt.Add(r.heartbeatGrace)
			default:
				continue
			}
			if now.After(deadline) {
				p.ConnectionState = models.ConnectionStateLeft
				st.outbox = append(st.outbox, models.RoomEvent{
					Type:     models.EventLeft,
					RoomID:   st.room.ID,
					Identity: p.Identity,
				})
			}
		}
		pending := len(st.outbox) > 0
		st.mu.Unlock()
		if pending {
			select {
			case st.wake <- struct{}{}:
			default:
			}
		}
	}
}

func ticketFor(p *models.Participant) models.WaitingTicket {
	return models.WaitingTicket{
		RoomID:          p.RoomID,
		Identity:        p.Identity,
		DisplayName:     p.DisplayName,
		PermissionLevel: p.PermissionLevel,
		Secret:          p.TicketSecret,
	}
}
