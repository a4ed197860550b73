// Package invite brokers the cross-user handshake required before two
// accounts can co-own a list.
package invite

import (
	"context"
	"fmt"
	"time"

	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/logger"
	"github.com/mvicentini/dispensa/internal/normalize"
	"github.com/mvicentini/dispensa/internal/notify"
)

// requestStore is the subset of data.RequestsStore the manager uses.
type requestStore interface {
	Create(ctx context.Context, req *data.ListShareRequest) (*data.ListShareRequest, error)
	GetByID(ctx context.Context, requestID string) (*data.ListShareRequest, error)
	ListPending(ctx context.Context, receiver string) ([]*data.ListShareRequest, error)
	MarkResponded(ctx context.Context, requestID, status string, at time.Time) error
}

// listStore is the subset of data.ListsStore the manager uses: only the
// materialization of a snapshot into a fresh list at acceptance time.
type listStore interface {
	CreateFromSnapshot(ctx context.Context, owner string, snap data.ListSnapshot, sharedFrom string) (*data.SharedList, error)
}

// Manager owns the share-request lifecycle. Store errors propagate unchanged;
// notification failures are logged and swallowed.
type Manager struct {
	requests requestStore
	lists    listStore
	sink     notify.Sink
	log      *logger.Logger
}

// NewManager wires a Manager from its collaborators.
func NewManager(requests requestStore, lists listStore, sink notify.Sink, log *logger.Logger) *Manager {
	return &Manager{requests: requests, lists: lists, sink: sink, log: log}
}

// ShareList fans out one pending request per recipient, each carrying a full
// snapshot of the list as it is right now. The sender's own email, empty
// entries and duplicates are skipped. Each persisted request triggers a
// best-effort notification to its recipient.
func (m *Manager) ShareList(ctx context.Context, sender string, list *data.SharedList, recipients []string) ([]*data.ListShareRequest, error) {
	sender = normalize.Email(sender)
	if sender == "" {
		return nil, data.ErrNotAuthenticated
	}

	snap := data.SnapshotOf(list)
	created := []*data.ListShareRequest{}

	for _, recipient := range normalize.Emails(recipients) {
		if recipient == sender {
			continue
		}

		req, err := m.requests.Create(ctx, &data.ListShareRequest{
			ListID:   list.ID.Hex(),
			ListName: list.Name,
			ListType: list.Kind,
			Sender:   sender,
			Receiver: recipient,
			Snapshot: snap,
		})
		if err != nil {
			return created, err
		}
		created = append(created, req)

		m.sendBestEffort(ctx, notify.Notification{
			Recipient: recipient,
			Title:     "Lista condivisa",
			Body:      fmt.Sprintf("%s ti ha invitato alla lista %q", sender, list.Name),
			Payload: map[string]any{
				"request_id": req.ID.Hex(),
				"list_name":  list.Name,
				"list_type":  list.Kind,
			},
		})
	}

	return created, nil
}

// ListPending returns the pending requests addressed to identity.
func (m *Manager) ListPending(ctx context.Context, identity string) ([]*data.ListShareRequest, error) {
	identity = normalize.Email(identity)
	if identity == "" {
		return nil, data.ErrNotAuthenticated
	}
	return m.requests.ListPending(ctx, identity)
}

// Respond resolves a pending request. On accept a brand-new list owned by the
// responder is materialized from the snapshot first; only after that insert
// has durably succeeded is the request flipped to its terminal status. If
// materialization fails, the request stays pending and the error propagates —
// there is never an accepted request without a list. On reject no list is
// created. Only the request's receiver may respond.
func (m *Manager) Respond(ctx context.Context, identity, requestID string, accept bool) (*data.SharedList, error) {
	identity = normalize.Email(identity)
	if identity == "" {
		return nil, data.ErrNotAuthenticated
	}

	req, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Receiver != identity {
		// Someone else's request is indistinguishable from a missing one.
		return nil, data.ErrNotFound
	}
	if req.Status != data.StatusPending {
		return nil, data.ErrAlreadyResolved
	}

	var list *data.SharedList
	status := data.StatusRejected
	if accept {
		list, err = m.lists.CreateFromSnapshot(ctx, identity, req.Snapshot, req.Sender)
		if err != nil {
			return nil, err
		}
		status = data.StatusAccepted
	}

	if err := m.requests.MarkResponded(ctx, requestID, status, time.Now()); err != nil {
		return nil, err
	}

	m.sendBestEffort(ctx, notify.Notification{
		Recipient: req.Sender,
		Title:     "Risposta alla condivisione",
		Body:      fmt.Sprintf("%s ha %s la lista %q", identity, responseVerb(accept), req.ListName),
		Payload: map[string]any{
			"request_id": requestID,
			"status":     status,
		},
	})

	return list, nil
}

// sendBestEffort delivers a notification and swallows any failure; a dead
// sink must never fail the surrounding operation.
func (m *Manager) sendBestEffort(ctx context.Context, n notify.Notification) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Send(ctx, n); err != nil {
		m.log.Warn("notification delivery failed",
			"recipient", n.Recipient,
			"title", n.Title,
			"error", err,
		)
	}
}

func responseVerb(accept bool) string {
	if accept {
		return "accettato"
	}
	return "rifiutato"
}
