package cartstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/tristore-backend/pkg/logger"
)

// Store holds the live cart state. Guest mutations are persisted to Storage;
// once signed in the server cart is authoritative and Storage only keeps the
// lines the server rejected.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	logg     *logger.Logger
	state    State
	api      CartAPI
	rejected []RejectedLine
}

// NewStore restores the persisted guest cart into a fresh state.
func NewStore(ctx context.Context, storage Storage, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, errors.New("cartstate: storage is required")
	}
	items, err := storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{
		storage: storage,
		logg:    logg,
		state:   Reduce(State{}, ReplaceItems{Items: items}),
	}, nil
}

// State returns a copy of the current cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api != nil
}

// Rejected lists the guest lines the server refused at the last sign-in.
func (s *Store) Rejected() []RejectedLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RejectedLine{}, s.rejected...)
}

// Dispatch reduces action into the state. A failed guest save is returned but
// the in-memory state still advances.
func (s *Store) Dispatch(ctx context.Context, action Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, action)
	if s.api != nil {
		return s.state.clone(), nil
	}
	if err := s.storage.Save(ctx, s.state.Items); err != nil {
		return s.state.clone(), fmt.Errorf("cartstate: persist guest cart: %w", err)
	}
	return s.state.clone(), nil
}

// Login merges the guest cart into the user's server cart and hydrates the
// lines from it. A failed merge leaves the store a guest with its cart intact.
func (s *Store) Login(ctx context.Context, api CartAPI) (*MergeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merger, err := NewMerger(s.storage, api, s.logg)
	if err != nil {
		return nil, err
	}
	outcome, err := merger.Merge(ctx)
	if err != nil {
		return nil, err
	}
	s.api = api
	s.rejected = append([]RejectedLine{}, outcome.Rejected...)

	items, err := api.FetchCart(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "server cart fetch failed after merge")
		}
		return outcome, fmt.Errorf("cartstate: fetch server cart: %w", err)
	}
	s.state = Reduce(s.state, ReplaceItems{Items: items})
	return outcome, nil
}

// Logout drops the server lines and falls back to whatever the guest storage holds.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	s.api = nil
	s.rejected = nil
	s.state = Reduce(s.state, ReplaceItems{Items: items})
	return nil
}
