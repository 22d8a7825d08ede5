package interact_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/eventbus"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

const (
	testChannel  = "chan-1"
	testUser     = "user-1"
	intruderUser = "user-2"
)

type sentMessage struct {
	channelID string
	messageID string
	msg       entity.OutgoingMessage
}

// fakePlatform records every outbound call.
type fakePlatform struct {
	mu     sync.Mutex
	nextID int
	sent   []sentMessage
	edits  []sentMessage
	acks   []entity.AckHandle

	sendErr error
	editErr error
	ackErr  error
}

func (p *fakePlatform) SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return "", p.sendErr
	}
	p.nextID++
	id := fmt.Sprintf("msg-%d", p.nextID)
	p.sent = append(p.sent, sentMessage{channelID: channelID, messageID: id, msg: msg})
	return id, nil
}

func (p *fakePlatform) EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutgoingMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.editErr != nil {
		return p.editErr
	}
	p.edits = append(p.edits, sentMessage{channelID: channelID, messageID: messageID, msg: msg})
	return nil
}

func (p *fakePlatform) Acknowledge(ctx context.Context, handle entity.AckHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ackErr != nil {
		return p.ackErr
	}
	p.acks = append(p.acks, handle)
	return nil
}

func (p *fakePlatform) Sent() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

func (p *fakePlatform) Edits() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.edits...)
}

func (p *fakePlatform) Acks() []entity.AckHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.AckHandle(nil), p.acks...)
}

// fakeRecorder keeps every stored session record.
type fakeRecorder struct {
	mu      sync.Mutex
	records []*entity.SessionRecord
}

func (r *fakeRecorder) Save(ctx context.Context, record *entity.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeRecorder) Records() []*entity.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.SessionRecord(nil), r.records...)
}

type harness struct {
	bus      *eventbus.Bus
	platform *fakePlatform
	recorder *fakeRecorder
	rt       *interact.Runtime
	clicks   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		bus:      eventbus.New(),
		platform: &fakePlatform{},
		recorder: &fakeRecorder{},
	}
	h.rt = interact.NewRuntime(h.platform, h.bus,
		interact.WithRecorder(h.recorder),
		interact.WithDefaultTimeout(5*time.Second),
	)
	return h
}

func invocation() entity.Invocation {
	return entity.Invocation{ChannelID: testChannel, UserID: testUser}
}

// waitForSessions blocks until n sessions are subscribed to the bus.
func (h *harness) waitForSessions(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.bus.Len() == n },
		2*time.Second, 5*time.Millisecond, "sessions never subscribed")
}

// waitForEdits blocks until the platform saw n edits.
func (h *harness) waitForEdits(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.platform.Edits()) >= n },
		2*time.Second, 5*time.Millisecond, "expected %d edits", n)
}

// click publishes a button click on messageID.
func (h *harness) click(messageID, userID, customID string) int {
	h.clicks++
	return h.bus.Publish(entity.InteractionEvent{
		Type:        entity.EventInteractionCreate,
		ChannelID:   testChannel,
		MessageID:   messageID,
		UserID:      userID,
		CustomID:    customID,
		HasCustomID: true,
		Ack: entity.AckHandle{
			InteractionID: fmt.Sprintf("interaction-%d", h.clicks),
			Token:         fmt.Sprintf("token-%d", h.clicks),
		},
	})
}

type runResult[T any] struct {
	value T
	err   error
}

// runAsync starts fn in a goroutine and returns a channel with its result.
func runAsync[T any](fn func() (T, error)) <-chan runResult[T] {
	ch := make(chan runResult[T], 1)
	go func() {
		v, err := fn()
		ch <- runResult[T]{value: v, err: err}
	}()
	return ch
}

func await[T any](t *testing.T, ch <-chan runResult[T]) (T, error) {
	t.Helper()
	select {
	case res := <-ch:
		return res.value, res.err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
		var zero T
		return zero, nil
	}
}

func rowOf(t *testing.T, row entity.Component) entity.ActionRow {
	t.Helper()
	r, ok := row.(entity.ActionRow)
	require.True(t, ok, "expected action row, got %T", row)
	return r
}
