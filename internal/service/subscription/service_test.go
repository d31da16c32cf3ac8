package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqanh/storegate/internal/model"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

type fakeRepo struct {
	byEndpoint map[string]*model.PushSubscription
	upsertErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEndpoint: map[string]*model.PushSubscription{}}
}

func (f *fakeRepo) Upsert(ctx context.Context, sub *model.PushSubscription) (uuid.UUID, error) {
	if f.upsertErr != nil {
		return uuid.Nil, f.upsertErr
	}
	if existing, ok := f.byEndpoint[sub.Endpoint]; ok {
		existing.P256dhKey = sub.P256dhKey
		existing.AuthKey = sub.AuthKey
		existing.UserID = sub.UserID
		existing.IsActive = true
		return existing.ID, nil
	}
	sub.ID = uuid.New()
	sub.IsActive = true
	f.byEndpoint[sub.Endpoint] = sub
	return sub.ID, nil
}

func (f *fakeRepo) Remove(ctx context.Context, endpoint string) error {
	delete(f.byEndpoint, endpoint)
	return nil
}

func (f *fakeRepo) RemoveByID(ctx context.Context, id uuid.UUID) error {
	for ep, s := range f.byEndpoint {
		if s.ID == id {
			delete(f.byEndpoint, ep)
		}
	}
	return nil
}

func (f *fakeRepo) Verify(ctx context.Context, endpoint string) (bool, error) {
	s, ok := f.byEndpoint[endpoint]
	return ok && s.IsActive, nil
}

func (f *fakeRepo) ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error) {
	var out []*model.PushSubscription
	for _, s := range f.byEndpoint {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]*model.PushSubscription, error) {
	var out []*model.PushSubscription
	for _, s := range f.byEndpoint {
		out = append(out, s)
	}
	return out, nil
}

func validSub(endpoint string) *model.PushSubscription {
	return &model.PushSubscription{
		Endpoint:  endpoint,
		P256dhKey: "BNc...p256dh",
		AuthKey:   "k9...auth",
	}
}

func TestSubscribe(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	userID := uuid.New()
	info := json.RawMessage(`{"browser":"firefox","os":"android"}`)
	id, err := svc.Subscribe(ctx, validSub("https://push.example.com/a"), &userID, "Mozilla/5.0", info)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	stored := repo.byEndpoint["https://push.example.com/a"]
	require.NotNil(t, stored)
	assert.Equal(t, &userID, stored.UserID)
	assert.Equal(t, "Mozilla/5.0", stored.UserAgent)
	assert.JSONEq(t, string(info), string(stored.BrowserInfo))
	assert.True(t, stored.IsActive)
}

func TestSubscribeSameEndpointUpserts(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, validSub("https://push.example.com/a"), nil, "", nil)
	require.NoError(t, err)

	refreshed := validSub("https://push.example.com/a")
	refreshed.P256dhKey = "rotated"
	second, err := svc.Subscribe(ctx, refreshed, nil, "", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same endpoint keeps the same id")
	assert.Len(t, repo.byEndpoint, 1)
	assert.Equal(t, "rotated", repo.byEndpoint["https://push.example.com/a"].P256dhKey)
}

func TestSubscribeRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, &model.PushSubscription{P256dhKey: "p", AuthKey: "a"}, nil, "", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidSubscription))

	_, err = svc.Subscribe(ctx, &model.PushSubscription{Endpoint: "https://push.example.com/a"}, nil, "", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidSubscription))
}

func TestSubscribeWrapsStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.upsertErr = apperrors.Storage(errors.New("connection refused"))
	svc := NewService(repo)

	_, err := svc.Subscribe(context.Background(), validSub("https://push.example.com/a"), nil, "", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrStorage))
}

func TestUnsubscribe(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, validSub("https://push.example.com/a"), nil, "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "https://push.example.com/a"))
	assert.Empty(t, repo.byEndpoint)

	assert.NoError(t, svc.Unsubscribe(ctx, "https://push.example.com/a"), "removing an absent endpoint is a no-op")

	err = svc.Unsubscribe(ctx, "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidSubscription))
}

func TestVerify(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, validSub("https://push.example.com/a"), nil, "", nil)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "https://push.example.com/a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, "https://push.example.com/unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Verify(ctx, "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidSubscription))
}
