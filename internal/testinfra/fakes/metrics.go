package fakes

import (
	"context"
	"sync"

	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
)

type Transition struct {
	From, To consts.ExecutionStatus
}

// Metrics records every port call for assertions.
type Metrics struct {
	mu          sync.Mutex
	Consumed    map[string]int
	Published   map[string]int
	PublishErrs int
	Transitions []Transition
	Pruned      map[string]int
}

var _ interfaces.Metrics = (*Metrics)(nil)

func NewMetrics() *Metrics {
	return &Metrics{
		Consumed:  make(map[string]int),
		Published: make(map[string]int),
		Pruned:    make(map[string]int),
	}
}

func (m *Metrics) MessageConsumed(_ context.Context, eventType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Consumed[eventType+"/"+outcome]++
}

func (m *Metrics) EventPublished(_ context.Context, eventType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.PublishErrs++
		return
	}
	m.Published[eventType]++
}

func (m *Metrics) JobTransitioned(_ context.Context, from, to consts.ExecutionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, Transition{From: from, To: to})
}

func (m *Metrics) LedgerPruned(_ context.Context, table string, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pruned[table] += rows
}

func (m *Metrics) ConsumedCount(eventType, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Consumed[eventType+"/"+outcome]
}

func (m *Metrics) TransitionsSnapshot() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transition(nil), m.Transitions...)
}
