package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mvicentini/dispensa/internal/normalize"
)

// RequestsStore exclusively owns list_requests documents. Nothing else reads
// or writes them; the aggregate only ever sees the snapshot handed over at
// acceptance time.
type RequestsStore struct {
	coll *mongo.Collection
}

// NewRequestsStore returns a RequestsStore using the given collection.
func NewRequestsStore(coll *mongo.Collection) *RequestsStore {
	return &RequestsStore{coll: coll}
}

// Create inserts a new pending request and returns it with its id populated.
func (s *RequestsStore) Create(ctx context.Context, req *ListShareRequest) (*ListShareRequest, error) {
	req.Sender = normalize.Email(req.Sender)
	req.Receiver = normalize.Email(req.Receiver)
	req.Status = StatusPending
	req.CreatedAt = time.Now()
	req.RespondedAt = nil

	result, err := s.coll.InsertOne(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ID = result.InsertedID.(bson.ObjectID)
	return req, nil
}

// GetByID returns the request with the given hex id, or ErrNotFound.
func (s *RequestsStore) GetByID(ctx context.Context, requestID string) (*ListShareRequest, error) {
	oid, err := bson.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, ErrNotFound
	}

	var req ListShareRequest
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPending returns all pending requests addressed to receiver, in
// store-native order.
func (s *RequestsStore) ListPending(ctx context.Context, receiver string) ([]*ListShareRequest, error) {
	filter := bson.M{
		"receiver": normalize.Email(receiver),
		"status":   StatusPending,
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []*ListShareRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// MarkResponded flips a pending request to the terminal status and stamps
// responded_at. The update filter includes status=pending so the transition
// can happen at most once: a second attempt matches nothing and the caller
// gets ErrAlreadyResolved (or ErrNotFound if the id never existed).
func (s *RequestsStore) MarkResponded(ctx context.Context, requestID, status string, at time.Time) error {
	oid, err := bson.ObjectIDFromHex(requestID)
	if err != nil {
		return ErrNotFound
	}

	filter := bson.M{"_id": oid, "status": StatusPending}
	update := bson.M{"$set": bson.M{
		"status":       status,
		"responded_at": at,
	}}

	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing request from one already resolved.
		count, err := s.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyResolved
	}
	return nil
}
