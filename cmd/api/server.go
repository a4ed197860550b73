package main

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/logger"
	"github.com/mvicentini/dispensa/internal/realtime"
)

// listsStore is the subset of data.ListsStore the handlers use.
type listsStore interface {
	Create(ctx context.Context, actor, name, kind string) (*data.SharedList, error)
	GetByID(ctx context.Context, listID string) (*data.SharedList, error)
	ListByMember(ctx context.Context, member string) ([]*data.SharedList, error)
	AddItem(ctx context.Context, listID, actor string, draft data.ItemDraft) (*data.SharedList, error)
	UpdateItem(ctx context.Context, listID, itemID, actor string, patch data.ItemPatch) (*data.SharedList, error)
	DeleteItem(ctx context.Context, listID, itemID, actor string) (*data.SharedList, error)
	Delete(ctx context.Context, listID string) error
	AddChatMessage(ctx context.Context, listID, actorEmail, actorName, text string) (*data.SharedList, error)
}

// inviteManager is the subset of invite.Manager the handlers use.
type inviteManager interface {
	ShareList(ctx context.Context, sender string, list *data.SharedList, recipients []string) ([]*data.ListShareRequest, error)
	ListPending(ctx context.Context, identity string) ([]*data.ListShareRequest, error)
	Respond(ctx context.Context, identity, requestID string, accept bool) (*data.SharedList, error)
}

// Server holds the handler dependencies.
type Server struct {
	lists    listsStore
	invites  inviteManager
	hub      *realtime.Hub
	validate *validator.Validate
	log      *logger.Logger
}

// newServer returns a ready-to-use Server wired with its collaborators.
func newServer(lists listsStore, invites inviteManager, hub *realtime.Hub, log *logger.Logger) *Server {
	return &Server{
		lists:    lists,
		invites:  invites,
		hub:      hub,
		validate: validator.New(),
		log:      log,
	}
}
