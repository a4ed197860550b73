package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/middleware"
	"github.com/mvicentini/dispensa/internal/realtime"
)

type createListRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
	Kind string `json:"kind" validate:"required,oneof=shopping pantry"`
	// Members are invited by email; they become share requests, never direct
	// membership.
	Members []string `json:"members" validate:"omitempty,dive,email"`
}

type addItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Quantity string  `json:"quantity" validate:"max=64"`
	Category string  `json:"category" validate:"max=64"`
	Priority string  `json:"priority" validate:"omitempty,oneof=alta media bassa"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

type updateItemRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Quantity  *string  `json:"quantity,omitempty" validate:"omitempty,max=64"`
	Category  *string  `json:"category,omitempty" validate:"omitempty,max=64"`
	Priority  *string  `json:"priority,omitempty" validate:"omitempty,oneof=alta media bassa"`
	Cost      *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Completed *bool    `json:"completed,omitempty"`
}

type chatMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

type shareListRequest struct {
	Members []string `json:"members" validate:"required,min=1,dive,email"`
}

type respondRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

// CreateList creates a list owned by the caller. Invited emails are routed
// through the invitation manager; the new list's membership is the creator
// alone.
func (s *Server) CreateList(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.lists.Create(c.Request.Context(), claims.Email, req.Name, req.Kind)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if len(req.Members) > 0 {
		if _, err := s.invites.ShareList(c.Request.Context(), claims.Email, list, req.Members); err != nil {
			// The list exists; report the failed fan-out without undoing it.
			s.log.Error("share fan-out failed", "list_id", list.ID.Hex(), "error", err)
			s.writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, list)
}

// ListMyLists returns every list the caller is a member of.
func (s *Server) ListMyLists(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	lists, err := s.lists.ListByMember(c.Request.Context(), claims.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

// GetList returns a single list with its items and chat transcript.
func (s *Server) GetList(c *gin.Context) {
	list, err := s.lists.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteList removes the caller's copy of the list. Other holders keep
// theirs.
func (s *Server) DeleteList(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	listID := c.Param("id")
	list, err := s.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.lists.Delete(c.Request.Context(), listID); err != nil {
		s.writeError(c, err)
		return
	}

	s.hub.Broadcast(list.Members, &realtime.Event{
		Type:   realtime.EventListDeleted,
		ListID: listID,
		Actor:  claims.Email,
	})
	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}

// AddItem appends an item to the list.
func (s *Server) AddItem(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.lists.AddItem(c.Request.Context(), c.Param("id"), claims.Email, data.ItemDraft{
		Name:     req.Name,
		Quantity: req.Quantity,
		Category: req.Category,
		Priority: req.Priority,
		Cost:     req.Cost,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.broadcast(list, realtime.EventItemAdded, claims.Email)
	c.JSON(http.StatusCreated, list)
}

// UpdateItem applies a partial patch to an item. Fields present in the body
// always take this writer's value; omitted fields are left to whoever wrote
// them last.
func (s *Server) UpdateItem(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.lists.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), claims.Email, data.ItemPatch{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Category:  req.Category,
		Priority:  req.Priority,
		Cost:      req.Cost,
		Completed: req.Completed,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.broadcast(list, realtime.EventItemUpdated, claims.Email)
	c.JSON(http.StatusOK, list)
}

// DeleteItem removes an item by id; removing a missing id is a no-op.
func (s *Server) DeleteItem(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	list, err := s.lists.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), claims.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.broadcast(list, realtime.EventItemDeleted, claims.Email)
	c.JSON(http.StatusOK, list)
}

// AddChatMessage appends to the list's transcript.
func (s *Server) AddChatMessage(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.lists.AddChatMessage(c.Request.Context(), c.Param("id"), claims.Email, claims.Name, req.Text)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.broadcast(list, realtime.EventChatMessage, claims.Email)
	c.JSON(http.StatusCreated, list)
}

// broadcast pushes a list-change event to the other connected members.
func (s *Server) broadcast(list *data.SharedList, eventType, actor string) {
	s.hub.Broadcast(list.Members, &realtime.Event{
		Type:   eventType,
		ListID: list.ID.Hex(),
		Actor:  actor,
	})
}

// writeError maps engine errors onto HTTP statuses: the UI needs to tell
// "not authenticated" from "not found" from "transient store failure".
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, data.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	case errors.Is(err, data.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, data.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
	case errors.Is(err, data.ErrNameRequired),
		errors.Is(err, data.ErrInvalidKind),
		errors.Is(err, data.ErrInvalidPriority),
		errors.Is(err, data.ErrNegativeCost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error("store operation failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "store unavailable, retry later"})
	}
}
