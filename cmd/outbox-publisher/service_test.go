package main

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oaklinehq/checkout-backend/pkg/config"
	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }
func (fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error            { return nil }
func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (r *fakeRepo) FetchUnpublishedTx(_ *gorm.DB, _, _ int) ([]models.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return fakeResult{err: p.err}
}

type fakeResult struct{ err error }

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.PubSub.OrdersTopic = "orders-topic"
	cfg.PubSub.CouponsTopic = "coupons-topic"
	return cfg
}

func newTestService(t *testing.T, repo *fakeRepo, publishers map[string]*fakePublisher) *Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	service, err := NewService(ServiceParams{
		Config:     testConfig(),
		Logger:     logg,
		DB:         fakeDB{},
		PubSub:     fakePubSub{},
		Repository: repo,
		PublisherFactory: func(topic string) publisher {
			pub, ok := publishers[topic]
			if !ok {
				return nil
			}
			return pub
		},
	})
	require.NoError(t, err)
	return service
}

func orderEvent(payload []byte) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventOrderCreated,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestProcessBatchRoutesByAggregateType(t *testing.T) {
	payload, err := json.Marshal(map[string]any{"event_id": "evt-1"})
	require.NoError(t, err)

	orderEvt := orderEvent(payload)
	couponEvt := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventCouponUnresolved,
		AggregateType: enums.OutboxAggregateCoupon,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{orderEvt, couponEvt}}
	orderPub := &fakePublisher{}
	couponPub := &fakePublisher{}
	service := newTestService(t, repo, map[string]*fakePublisher{
		"orders-topic":  orderPub,
		"coupons-topic": couponPub,
	})

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, orderPub.messages, 1)
	require.Len(t, couponPub.messages, 1)
	assert.ElementsMatch(t, []uuid.UUID{orderEvt.ID, couponEvt.ID}, repo.published)
	assert.Empty(t, repo.failed)

	attrs := orderPub.messages[0].Attributes
	assert.Equal(t, string(enums.OutboxEventOrderCreated), attrs["event_type"])
	assert.Equal(t, orderEvt.AggregateID.String(), attrs["aggregate_id"])
	assert.Equal(t, "evt-1", attrs["event_id"])
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	failing := orderEvent(json.RawMessage(`{}`))
	healthy := orderEvent(json.RawMessage(`{}`))
	repo := &fakeRepo{events: []models.OutboxEvent{failing, healthy}}

	orderPub := &fakePublisher{err: assert.AnError}
	service := newTestService(t, repo, map[string]*fakePublisher{"orders-topic": orderPub})

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{failing.ID, healthy.ID}, repo.failed)
	assert.Empty(t, repo.published)
}

func TestProcessBatchUnroutableAggregate(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventOrderCreated,
		AggregateType: enums.OutboxAggregateType("unknown"),
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	service := newTestService(t, repo, map[string]*fakePublisher{})

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.failed)
}

func TestProcessBatchEmpty(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}
