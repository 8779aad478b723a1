package providerfake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
)

var _ checkout.Provider = (*FakeProvider)(nil)

var ErrSessionNotFound = errors.New("no such checkout session")

// FakeProvider is an in-memory payment provider. Created sessions start open
// and unpaid; tests settle them with Pay, Complete or Put.
type FakeProvider struct {
	sessions  map[string]*checkout.Session
	created   []checkout.SessionParams
	createErr error
	getErr    error
	block     bool
	next      int
	lock      sync.RWMutex
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		sessions: make(map[string]*checkout.Session),
	}
}

func (p *FakeProvider) CreateSession(ctx context.Context, params checkout.SessionParams) (*checkout.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.created = append(p.created, params)
	if p.createErr != nil {
		return nil, p.createErr
	}

	p.next++
	id := fmt.Sprintf("cs_test_%d", p.next)
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	session := &checkout.Session{
		ID:            id,
		URL:           "https://checkout.example/pay/" + id,
		Mode:          params.Mode,
		Status:        "open",
		PaymentStatus: "unpaid",
		Metadata:      metadata,
	}
	p.sessions[id] = session
	copied := *session
	return &copied, nil
}

func (p *FakeProvider) GetSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	p.lock.RLock()
	block, getErr := p.block, p.getErr
	session, ok := p.sessions[sessionID]
	p.lock.RUnlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if getErr != nil {
		return nil, getErr
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Put stores a session as the provider would report it.
func (p *FakeProvider) Put(session checkout.Session) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.sessions[session.ID] = &session
}

// Pay marks a one-time session as paid.
func (p *FakeProvider) Pay(sessionID string) {
	p.update(sessionID, func(s *checkout.Session) {
		s.Status = "complete"
		s.PaymentStatus = "paid"
	})
}

// Complete marks a session as complete without touching its payment status.
func (p *FakeProvider) Complete(sessionID string) {
	p.update(sessionID, func(s *checkout.Session) {
		s.Status = "complete"
	})
}

func (p *FakeProvider) update(sessionID string, fn func(*checkout.Session)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if s, ok := p.sessions[sessionID]; ok {
		fn(s)
	}
}

// FailCreate makes every CreateSession call return err.
func (p *FakeProvider) FailCreate(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.createErr = err
}

// FailGet makes every GetSession call return err.
func (p *FakeProvider) FailGet(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.getErr = err
}

// Hang makes GetSession block until its context is done.
func (p *FakeProvider) Hang() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.block = true
}

// Created returns the parameters of every CreateSession call.
func (p *FakeProvider) Created() []checkout.SessionParams {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return append([]checkout.SessionParams(nil), p.created...)
}
