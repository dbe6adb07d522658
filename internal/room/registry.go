package room

import (
	"slices"
	"strings"
	"sync"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/samber/lo"
)

type Kind string

const (
	KindChat              Kind = "chat"
	KindTicTacToe         Kind = "ttt"
	KindRockPaperScissors Kind = "rps"
)

const keySeparator = ":"

// State is the mutable part of a room. It is only reachable through Room.Do.
type State struct {
	Members map[string]struct{}
	Match   *entity.Match
	Round   *entity.Round
}

type Room struct {
	Kind Kind
	Key  string

	mu    sync.Mutex
	state *State
}

// Info is a point in time view of a room.
type Info struct {
	Kind    Kind     `json:"kind"`
	Key     string   `json:"room"`
	Members []string `json:"members"`
}

// ID is the registry key of a room, also used as its broadcast topic.
func ID(kind Kind, key string) string {
	return string(kind) + keySeparator + key
}

func newRoom(kind Kind, key string) *Room {
	state := &State{Members: make(map[string]struct{})}

	switch kind {
	case KindTicTacToe:
		state.Match = entity.NewMatch()
	case KindRockPaperScissors:
		state.Round = entity.NewRound()
	}

	return &Room{
		Kind:  kind,
		Key:   key,
		state: state,
	}
}

func (that *Room) ID() string {
	return ID(that.Kind, that.Key)
}

// Do runs fn with exclusive access to the room state. fn must not block on
// other rooms or on I/O.
func (that *Room) Do(fn func(state *State)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fn(that.state)
}

func (that *Room) info() Info {
	that.mu.Lock()
	defer that.mu.Unlock()

	members := lo.Keys(that.state.Members)
	slices.Sort(members)

	return Info{Kind: that.Kind, Key: that.Key, Members: members}
}

// Registry holds every live room of the process. Rooms are created on first
// reference and never removed.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for (kind, key), creating it if needed.
// Concurrent callers for the same unseen key get the same room.
func (that *Registry) GetOrCreate(key string, kind Kind) *Room {
	id := ID(kind, key)

	that.mu.RLock()
	room, ok := that.rooms[id]
	that.mu.RUnlock()

	if ok {
		return room
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if room, ok = that.rooms[id]; ok {
		return room
	}

	room = newRoom(kind, key)
	that.rooms[id] = room

	return room
}

// Snapshot lists live rooms ordered by kind and key. Rooms are locked one at a time.
func (that *Registry) Snapshot() []Info {
	that.mu.RLock()
	rooms := lo.Values(that.rooms)
	that.mu.RUnlock()

	infos := lo.Map(rooms, func(item *Room, _ int) Info {
		return item.info()
	})

	slices.SortFunc(infos, func(a, b Info) int {
		if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})

	return infos
}
