package persist

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store is the durable side of the bridge, satisfied by *db.Database.
type Store interface {
	UpdateRoomCode(id, code string) error
	UpdateRoomLanguage(id, language string) error
	UpdateActiveUsers(id string, delta int) error
}

type opKind int

const (
	opCode opKind = iota
	opLanguage
	opActiveUsers
)

type op struct {
	kind   opKind
	roomID string
	value  string
	delta  int
}

// Bridge mirrors authoritative in-memory room state to the durable store
// asynchronously. Writes are fire-and-forget from the caller's point of
// view: a slow or failing store never delays a broadcast. A single worker
// drains the queue, which keeps writes for one room in submission order.
type Bridge struct {
	store    Store
	queue    chan op
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(store Store) *Bridge {
	return &Bridge{
		store: store,
		queue: make(chan op, 256),
		stop:  make(chan struct{}),
	}
}

func (b *Bridge) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop drains any queued writes and waits for the worker to exit. Safe to
// call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
}

// SaveCode queues a code write. Dropped with a log line if the queue is
// full; persistence is best-effort while the room is hot.
func (b *Bridge) SaveCode(roomID, code string) {
	b.enqueue(op{kind: opCode, roomID: roomID, value: code})
}

func (b *Bridge) SaveLanguage(roomID, language string) {
	b.enqueue(op{kind: opLanguage, roomID: roomID, value: language})
}

// BumpActiveUsers queues a delta to the room's durable active-user
// counter; the store clamps at zero.
func (b *Bridge) BumpActiveUsers(roomID string, delta int) {
	b.enqueue(op{kind: opActiveUsers, roomID: roomID, delta: delta})
}

func (b *Bridge) enqueue(o op) {
	select {
	case b.queue <- o:
	default:
		log.Warn().Str("module", "persist").Str("room", o.roomID).Msg("persistence queue full, dropping write")
	}
}

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		select {
		case o := <-b.queue:
			b.apply(o)
		case <-b.stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case o := <-b.queue:
					b.apply(o)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) apply(o op) {
	var err error
	switch o.kind {
	case opCode:
		err = b.store.UpdateRoomCode(o.roomID, o.value)
	case opLanguage:
		err = b.store.UpdateRoomLanguage(o.roomID, o.value)
	case opActiveUsers:
		err = b.store.UpdateActiveUsers(o.roomID, o.delta)
	}
	if err != nil {
		log.Error().Str("module", "persist").Str("room", o.roomID).Err(err).Msg("store write failed")
	}
}
