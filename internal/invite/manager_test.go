package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/logger"
	"github.com/mvicentini/dispensa/internal/notify"
)

// fakeRequests is an in-memory requestStore recording calls.
type fakeRequests struct {
	byID      map[string]*data.ListShareRequest
	createErr error
	markErr   error
	marked    []string
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{byID: map[string]*data.ListShareRequest{}}
}

func (f *fakeRequests) Create(ctx context.Context, req *data.ListShareRequest) (*data.ListShareRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	req.ID = bson.NewObjectID()
	req.Status = data.StatusPending
	req.CreatedAt = time.Now()
	f.byID[req.ID.Hex()] = req
	return req, nil
}

func (f *fakeRequests) GetByID(ctx context.Context, requestID string) (*data.ListShareRequest, error) {
	req, ok := f.byID[requestID]
	if !ok {
		return nil, data.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequests) ListPending(ctx context.Context, receiver string) ([]*data.ListShareRequest, error) {
	out := []*data.ListShareRequest{}
	for _, req := range f.byID {
		if req.Receiver == receiver && req.Status == data.StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) MarkResponded(ctx context.Context, requestID, status string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	req, ok := f.byID[requestID]
	if !ok {
		return data.ErrNotFound
	}
	if req.Status != data.StatusPending {
		return data.ErrAlreadyResolved
	}
	req.Status = status
	req.RespondedAt = &at
	f.marked = append(f.marked, requestID)
	return nil
}

// fakeLists is a listStore that materializes lists in memory.
type fakeLists struct {
	createErr error
	created   []*data.SharedList
}

func (f *fakeLists) CreateFromSnapshot(ctx context.Context, owner string, snap data.ListSnapshot, sharedFrom string) (*data.SharedList, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	list := &data.SharedList{
		ID:         bson.NewObjectID(),
		OwnerID:    owner,
		Name:       snap.Name,
		Kind:       snap.Kind,
		Members:    []string{owner},
		Items:      snap.Items,
		SharedFrom: sharedFrom,
	}
	f.created = append(f.created, list)
	return list, nil
}

// failingSink always fails delivery.
type failingSink struct{ calls int }

func (s *failingSink) Send(ctx context.Context, n notify.Notification) error {
	s.calls++
	return errors.New("broker unreachable")
}

func newTestManager() (*Manager, *fakeRequests, *fakeLists) {
	requests := newFakeRequests()
	lists := &fakeLists{}
	m := NewManager(requests, lists, notify.NewLogSink(logger.NewNop()), logger.NewNop())
	return m, requests, lists
}

func sampleList() *data.SharedList {
	return &data.SharedList{
		ID:      bson.NewObjectID(),
		OwnerID: "u1@example.com",
		Name:    "Spesa",
		Kind:    data.KindShopping,
		Members: []string{"u1@example.com"},
		Items: []data.SharedListItem{
			{ID: "a", Name: "Latte", Cost: 1.5},
			{ID: "b", Name: "Pane", Cost: 2.0},
		},
	}
}

func TestShareList_FanOut(t *testing.T) {
	m, requests, _ := newTestManager()
	ctx := context.Background()

	created, err := m.ShareList(ctx, "U1@example.com", sampleList(),
		[]string{"u2@example.com", "U1@example.com", "u3@example.com", "u2@example.com", ""})
	require.NoError(t, err)

	// one request per distinct recipient, sender and empties skipped
	require.Len(t, created, 2)
	assert.Equal(t, "u2@example.com", created[0].Receiver)
	assert.Equal(t, "u3@example.com", created[1].Receiver)

	for _, req := range created {
		assert.Equal(t, data.StatusPending, req.Status)
		assert.Equal(t, "u1@example.com", req.Sender)
		assert.Equal(t, "Spesa", req.ListName)
		assert.Len(t, req.Snapshot.Items, 2)
	}

	pending, err := m.ListPending(ctx, "u2@example.com")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Len(t, requests.byID, 2)
}

func TestShareList_NotificationFailureSwallowed(t *testing.T) {
	requests := newFakeRequests()
	sink := &failingSink{}
	m := NewManager(requests, &fakeLists{}, sink, logger.NewNop())

	created, err := m.ShareList(context.Background(), "u1@example.com", sampleList(), []string{"u2@example.com"})
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, 1, sink.calls)
}

func TestRespond_AcceptMaterializesCopy(t *testing.T) {
	m, requests, lists := newTestManager()
	ctx := context.Background()

	created, err := m.ShareList(ctx, "u1@example.com", sampleList(), []string{"u2@example.com"})
	require.NoError(t, err)
	reqID := created[0].ID.Hex()

	list, err := m.Respond(ctx, "u2@example.com", reqID, true)
	require.NoError(t, err)
	require.NotNil(t, list)

	// the copy belongs to the responder alone; the sender only survives as
	// shared_from provenance
	assert.Equal(t, []string{"u2@example.com"}, list.Members)
	assert.Equal(t, "u1@example.com", list.SharedFrom)
	assert.Len(t, list.Items, 2)

	stored := requests.byID[reqID]
	assert.Equal(t, data.StatusAccepted, stored.Status)
	require.NotNil(t, stored.RespondedAt)
	assert.Len(t, lists.created, 1)
}

func TestRespond_RejectCreatesNothing(t *testing.T) {
	m, requests, lists := newTestManager()
	ctx := context.Background()

	created, err := m.ShareList(ctx, "u1@example.com", sampleList(), []string{"u2@example.com"})
	require.NoError(t, err)
	reqID := created[0].ID.Hex()

	list, err := m.Respond(ctx, "u2@example.com", reqID, false)
	require.NoError(t, err)
	assert.Nil(t, list)
	assert.Empty(t, lists.created)

	stored := requests.byID[reqID]
	assert.Equal(t, data.StatusRejected, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	// resolution happens exactly once
	_, err = m.Respond(ctx, "u2@example.com", reqID, true)
	assert.ErrorIs(t, err, data.ErrAlreadyResolved)
	assert.Empty(t, lists.created)
}

func TestRespond_MaterializationFailureLeavesPending(t *testing.T) {
	m, requests, lists := newTestManager()
	ctx := context.Background()

	created, err := m.ShareList(ctx, "u1@example.com", sampleList(), []string{"u2@example.com"})
	require.NoError(t, err)
	reqID := created[0].ID.Hex()

	boom := errors.New("store unavailable")
	lists.createErr = boom

	_, err = m.Respond(ctx, "u2@example.com", reqID, true)
	assert.ErrorIs(t, err, boom)

	// no partial state: the request is still pending and was never marked
	assert.Equal(t, data.StatusPending, requests.byID[reqID].Status)
	assert.Empty(t, requests.marked)

	// once the store recovers, the same request can still be accepted
	lists.createErr = nil
	list, err := m.Respond(ctx, "u2@example.com", reqID, true)
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, data.StatusAccepted, requests.byID[reqID].Status)
}

func TestRespond_Authorization(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	created, err := m.ShareList(ctx, "u1@example.com", sampleList(), []string{"u2@example.com"})
	require.NoError(t, err)
	reqID := created[0].ID.Hex()

	// only the receiver may respond; everyone else sees not-found
	_, err = m.Respond(ctx, "u3@example.com", reqID, true)
	assert.ErrorIs(t, err, data.ErrNotFound)

	_, err = m.Respond(ctx, "u2@example.com", "ffffffffffffffffffffffff", true)
	assert.ErrorIs(t, err, data.ErrNotFound)

	_, err = m.Respond(ctx, "", reqID, true)
	assert.ErrorIs(t, err, data.ErrNotAuthenticated)
}
