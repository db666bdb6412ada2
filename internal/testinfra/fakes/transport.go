package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
)

// Queue serves the queued batches one per receive call and remembers deletions.
type Queue struct {
	mu         sync.Mutex
	batches    [][]interfaces.Message
	ReceiveErr error
	Deleted    []string
	Receives   int
}

var _ interfaces.Queue = (*Queue)(nil)

func NewQueue(batches ...[]interfaces.Message) *Queue {
	return &Queue{batches: batches}
}

func (q *Queue) ReceiveMessages(ctx context.Context, _, _ int32) ([]interfaces.Message, error) {
	q.mu.Lock()
	q.Receives++
	if q.ReceiveErr != nil {
		q.mu.Unlock()
		return nil, q.ReceiveErr
	}
	if len(q.batches) > 0 {
		batch := q.batches[0]
		q.batches = q.batches[1:]
		q.mu.Unlock()
		return batch, nil
	}
	q.mu.Unlock()

	// an empty queue long-polls until the caller gives up
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *Queue) DeleteMessage(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Deleted = append(q.Deleted, receiptHandle)
	return nil
}

func (q *Queue) DeletedSnapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.Deleted...)
}

type Published struct {
	Message    string
	Attributes map[string]string
}

// Topic records published messages. FailOn makes publishing fail for the given event types.
type Topic struct {
	mu        sync.Mutex
	Messages  []Published
	FailOn    map[string]bool
	FailAll   error
	messageID int
}

var _ interfaces.Topic = (*Topic)(nil)

func NewTopic() *Topic {
	return &Topic{FailOn: make(map[string]bool)}
}

func (t *Topic) Publish(_ context.Context, message string, attributes map[string]string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAll != nil {
		return "", t.FailAll
	}
	if t.FailOn[attributes["EventType"]] {
		return "", fmt.Errorf("publish %s rejected", attributes["EventType"])
	}
	t.Messages = append(t.Messages, Published{Message: message, Attributes: attributes})
	t.messageID++
	return fmt.Sprintf("msg-%d", t.messageID), nil
}

func (t *Topic) Snapshot() []Published {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Published(nil), t.Messages...)
}

// Archive keeps uploaded objects in memory.
type Archive struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

var _ interfaces.Archive = (*Archive)(nil)

func NewArchive() *Archive {
	return &Archive{Objects: make(map[string][]byte)}
}

func (a *Archive) Put(_ context.Context, key string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Objects[key] = append([]byte(nil), body...)
	return nil
}
