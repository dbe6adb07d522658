package room

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Run("Creates default state per kind", func(t *testing.T) {
		// Given: an empty registry
		registry := NewRegistry()

		// When: one room of each kind is referenced
		chat := registry.GetOrCreate("main", KindChat)
		ttt := registry.GetOrCreate("ttt", KindTicTacToe)
		rps := registry.GetOrCreate("rps", KindRockPaperScissors)

		// Then: each room carries the state of its kind
		chat.Do(func(state *State) {
			assert.Nil(t, state.Match)
			assert.Nil(t, state.Round)
			assert.Empty(t, state.Members)
		})
		ttt.Do(func(state *State) {
			require.NotNil(t, state.Match)
			assert.Nil(t, state.Round)
		})
		rps.Do(func(state *State) {
			require.NotNil(t, state.Round)
			assert.Nil(t, state.Match)
		})
	})

	t.Run("Same key of different kinds are different rooms", func(t *testing.T) {
		// Given: an empty registry
		registry := NewRegistry()

		// When: the same key is used for a chat and a game room
		chat := registry.GetOrCreate("lab", KindChat)
		ttt := registry.GetOrCreate("lab", KindTicTacToe)

		// Then: they do not share state
		assert.NotSame(t, chat, ttt)
	})

	t.Run("Concurrent creation yields a single room", func(t *testing.T) {
		// Given: an empty registry and many goroutines racing on one key
		registry := NewRegistry()
		const workers = 64

		rooms := make([]*Room, workers)
		var wg sync.WaitGroup

		// When: all of them reference the unseen key at once
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rooms[i] = registry.GetOrCreate("race", KindTicTacToe)
			}(i)
		}
		wg.Wait()

		// Then: every caller got the same room
		for _, room := range rooms {
			assert.Same(t, rooms[0], room)
		}
		assert.Len(t, registry.Snapshot(), 1)
	})
}

func TestRoom_DoSerializesMutations(t *testing.T) {
	// Given: a chat room
	registry := NewRegistry()
	room := registry.GetOrCreate("main", KindChat)
	const workers = 100

	var wg sync.WaitGroup

	// When: many goroutines add members concurrently
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room.Do(func(state *State) {
				state.Members["user"+strconv.Itoa(i)] = struct{}{}
			})
		}(i)
	}
	wg.Wait()

	// Then: no write was lost
	room.Do(func(state *State) {
		assert.Len(t, state.Members, workers)
	})
}

func TestRegistry_Snapshot(t *testing.T) {
	// Given: rooms of several kinds with members
	registry := NewRegistry()
	registry.GetOrCreate("ttt", KindTicTacToe)
	registry.GetOrCreate("main", KindChat).Do(func(state *State) {
		state.Members["zoe"] = struct{}{}
		state.Members["adam"] = struct{}{}
	})
	registry.GetOrCreate("lab", KindChat)

	// When: a snapshot is taken
	infos := registry.Snapshot()

	// Then: rooms are ordered by kind then key, members sorted
	require.Len(t, infos, 3)
	assert.Equal(t, Info{Kind: KindChat, Key: "lab", Members: []string{}}, infos[0])
	assert.Equal(t, Info{Kind: KindChat, Key: "main", Members: []string{"adam", "zoe"}}, infos[1])
	assert.Equal(t, KindTicTacToe, infos[2].Kind)
}
