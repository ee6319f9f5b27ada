// Package memory is an in-process implementation of store.Gateway. It keeps
// every record in maps guarded by one mutex and evaluates query.Spec values
// directly. Transactions work on a copy of the state that replaces the
// original only when the unit of work succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

type state struct {
	tasks    map[uuid.UUID]*domain.Task
	subtasks map[uuid.UUID]*domain.Subtask
	tags     map[uuid.UUID]*domain.Tag
	users    map[uuid.UUID]*domain.User
}

func newState() *state {
	return &state{
		tasks:    make(map[uuid.UUID]*domain.Task),
		subtasks: make(map[uuid.UUID]*domain.Subtask),
		tags:     make(map[uuid.UUID]*domain.Tag),
		users:    make(map[uuid.UUID]*domain.User),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, t := range s.tasks {
		c.tasks[id] = t.Clone()
	}
	for id, st := range s.subtasks {
		c.subtasks[id] = st.Clone()
	}
	for id, tag := range s.tags {
		tagCopy := *tag
		c.tags[id] = &tagCopy
	}
	for id, u := range s.users {
		c.users[id] = cloneUser(u)
	}
	return c
}

// db is the shared root: the live state and the lock that serializes every
// access to it, including whole transactions.
type db struct {
	mu    sync.Mutex
	state *state
}

// Gateway implements store.Gateway in memory.
type Gateway struct {
	root *db

	// tx is non-nil inside InTx. Stores then operate on it without locking,
	// because the transaction already holds root.mu.
	tx *state
}

var _ store.Gateway = (*Gateway)(nil)

// NewGateway returns an empty in-memory gateway.
func NewGateway() *Gateway {
	return &Gateway{root: &db{state: newState()}}
}

// Tasks implements store.Gateway.
func (g *Gateway) Tasks() store.TaskStore { return &TaskStore{g: g} }

// Subtasks implements store.Gateway.
func (g *Gateway) Subtasks() store.SubtaskStore { return &SubtaskStore{g: g} }

// Tags implements store.Gateway.
func (g *Gateway) Tags() store.TagStore { return &TagStore{g: g} }

// Users implements store.Gateway.
func (g *Gateway) Users() store.UserStore { return &UserStore{g: g} }

// InTx runs fn against a private copy of the state and publishes the copy
// if fn succeeds. Transactions are fully serialized. Nested calls join the
// enclosing transaction.
func (g *Gateway) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Gateway) error) error {
	if g.tx != nil {
		return fn(ctx, g)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.root.mu.Lock()
	defer g.root.mu.Unlock()

	work := g.root.state.clone()
	if err := fn(ctx, &Gateway{root: g.root, tx: work}); err != nil {
		return err
	}
	g.root.state = work
	return nil
}

// with runs fn against the current state, taking the lock unless already
// inside a transaction.
func (g *Gateway) with(fn func(s *state) error) error {
	if g.tx != nil {
		return fn(g.tx)
	}
	g.root.mu.Lock()
	defer g.root.mu.Unlock()
	return fn(g.root.state)
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]domain.Role(nil), u.Roles...)
	return &c
}
