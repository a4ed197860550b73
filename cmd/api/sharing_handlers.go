package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvicentini/dispensa/internal/middleware"
	"github.com/mvicentini/dispensa/internal/realtime"
)

// ShareList fans out share requests for an existing list to the given
// emails. Each recipient gets their own pending request carrying a snapshot
// of the list as of now.
func (s *Server) ShareList(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req shareListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.lists.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	created, err := s.invites.ShareList(c.Request.Context(), claims.Email, list, req.Members)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"requests": created})
}

// ListPendingRequests returns the caller's pending share inbox.
func (s *Server) ListPendingRequests(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	pending, err := s.invites.ListPending(c.Request.Context(), claims.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": pending})
}

// RespondToRequest accepts or rejects a pending share request. Acceptance
// returns the freshly materialized list.
func (s *Server) RespondToRequest(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.invites.Respond(c.Request.Context(), claims.Email, c.Param("id"), *req.Accept)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if list == nil {
		c.JSON(http.StatusOK, gin.H{"status": "rejected"})
		return
	}

	s.hub.Broadcast(list.Members, &realtime.Event{
		Type:   realtime.EventListCreated,
		ListID: list.ID.Hex(),
		Actor:  claims.Email,
	})
	c.JSON(http.StatusCreated, list)
}
