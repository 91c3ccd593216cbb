package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/idgen"
)

// maxIDAttempts bounds the collision retry loop in the id helpers.
const maxIDAttempts = 16

// roundEntry pairs a live round with the mutex that serialises every
// mutation of it.
type roundEntry struct {
	mu    sync.Mutex
	round *domain.Round
}

// Stats is a point-in-time count of the registry contents.
type Stats struct {
	Rounds     int `json:"activeRounds"`
	OpenRounds int `json:"openRounds"`
	Bets       int `json:"totalBets"`
}

// RoundRepository is the in-process store for rounds and their bets.
//
// Lock order is always entry.mu before r.mu; r.mu is never held while
// waiting on an entry.
type RoundRepository struct {
	mu     sync.RWMutex
	rounds map[string]*roundEntry
	order  []string
	bets   map[string]domain.Bet
	betIDs map[string]struct{} // issued bet ids, including not-yet-indexed ones
	gen    idgen.Generator
}

// NewRoundRepository creates an empty RoundRepository drawing ids from gen.
func NewRoundRepository(gen idgen.Generator) *RoundRepository {
	return &RoundRepository{
		rounds: make(map[string]*roundEntry),
		bets:   make(map[string]domain.Bet),
		betIDs: make(map[string]struct{}),
		gen:    gen,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Identifiers
// ──────────────────────────────────────────────────────────────────────────────

// NextRoundID returns a round id not used by any stored round.
func (r *RoundRepository) NextRoundID() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i < maxIDAttempts; i++ {
		id := r.gen.NewID(idgen.RoundIDBytes)
		if _, taken := r.rounds[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("round_repo.NextRoundID: no free id after %d attempts", maxIDAttempts)
}

// NextBetID issues and reserves a bet id unique across every round.
func (r *RoundRepository) NextBetID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < maxIDAttempts; i++ {
		id := r.gen.NewID(idgen.BetIDBytes)
		if _, taken := r.betIDs[id]; !taken {
			r.betIDs[id] = struct{}{}
			return id, nil
		}
	}
	return "", fmt.Errorf("round_repo.NextBetID: no free id after %d attempts", maxIDAttempts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Writes
// ──────────────────────────────────────────────────────────────────────────────

// Create stores a new round.  The repository takes ownership of rd.
func (r *RoundRepository) Create(ctx context.Context, rd *domain.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rounds[rd.ID]; exists {
		return fmt.Errorf("round_repo.Create: duplicate round id %q", rd.ID)
	}
	r.rounds[rd.ID] = &roundEntry{round: rd}
	r.order = append(r.order, rd.ID)
	return nil
}

// Update runs fn on the live round while holding that round's lock, and
// returns a snapshot of the round as fn left it.  Bets appended by fn are
// added to the bet index before the lock is released.  When fn fails the
// round is left as fn left it, so fn must validate before it mutates.
func (r *RoundRepository) Update(ctx context.Context, id string, fn func(*domain.Round) error) (*domain.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := len(e.round.Bets)
	if err := fn(e.round); err != nil {
		return nil, err
	}
	if added := e.round.Bets[before:]; len(added) > 0 {
		r.mu.Lock()
		for _, b := range added {
			r.bets[b.ID] = b
			r.betIDs[b.ID] = struct{}{}
		}
		r.mu.Unlock()
	}
	return e.round.Clone(), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────────────────────────────────

// Get returns a snapshot of the round, or domain.ErrRoundNotFound.
func (r *RoundRepository) Get(ctx context.Context, id string) (*domain.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round.Clone(), nil
}

// List returns snapshots of every round in creation order.
func (r *RoundRepository) List(ctx context.Context) ([]*domain.Round, error) {
	return r.collect(ctx, func(*domain.Round) bool { return true })
}

// ListOpen returns snapshots of the open rounds in creation order.
func (r *RoundRepository) ListOpen(ctx context.Context) ([]*domain.Round, error) {
	return r.collect(ctx, (*domain.Round).IsOpen)
}

// GetBet looks a bet up by id across all rounds.
func (r *RoundRepository) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bets[id]
	if !ok {
		return domain.Bet{}, domain.ErrBetNotFound
	}
	return b, nil
}

// HasRound reports whether a round with id exists.
func (r *RoundRepository) HasRound(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rounds[id]
	return ok
}

// HasBet reports whether a bet with id has been recorded.
func (r *RoundRepository) HasBet(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bets[id]
	return ok
}

// Stats counts rounds, open rounds and recorded bets.
func (r *RoundRepository) Stats() Stats {
	r.mu.RLock()
	entries := r.entriesLocked()
	s := Stats{Rounds: len(entries), Bets: len(r.bets)}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.round.IsOpen() {
			s.OpenRounds++
		}
		e.mu.Unlock()
	}
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal
// ──────────────────────────────────────────────────────────────────────────────

func (r *RoundRepository) entry(id string) (*roundEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rounds[id]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	return e, nil
}

// entriesLocked returns the entries in creation order.  r.mu must be held.
func (r *RoundRepository) entriesLocked() []*roundEntry {
	out := make([]*roundEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rounds[id])
	}
	return out
}

func (r *RoundRepository) collect(ctx context.Context, keep func(*domain.Round) bool) ([]*domain.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	entries := r.entriesLocked()
	r.mu.RUnlock()

	out := make([]*domain.Round, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if keep(e.round) {
			out = append(out, e.round.Clone())
		}
		e.mu.Unlock()
	}
	return out, nil
}
