package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvicentini/dispensa/internal/auth"
	"github.com/mvicentini/dispensa/internal/config"
	"github.com/mvicentini/dispensa/internal/data"
	"github.com/mvicentini/dispensa/internal/db"
	"github.com/mvicentini/dispensa/internal/invite"
	"github.com/mvicentini/dispensa/internal/logger"
	"github.com/mvicentini/dispensa/internal/middleware"
	"github.com/mvicentini/dispensa/internal/notify"
	"github.com/mvicentini/dispensa/internal/realtime"
)

// apiForTest wires the real stores and invitation manager behind the router,
// backed by the test database. Skips when no MongoDB is reachable.
func apiForTest(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	client, err := db.New(ctx, uri, "dispensa_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	_ = client.ListsCollection().Drop(ctx)
	_ = client.RequestsCollection().Drop(ctx)

	log := logger.NewNop()
	lists := data.NewListsStore(client.ListsCollection())
	requests := data.NewRequestsStore(client.RequestsCollection())
	invites := invite.NewManager(requests, lists, notify.NewLogSink(log), log)

	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	limiter := middleware.NewLimiterStore(600, 100, time.Minute)
	t.Cleanup(limiter.Stop)

	srv := newServer(lists, invites, realtime.NewHub(), log)
	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	return setupRouter(srv, jwtMgr, limiter, cfg), jwtMgr
}

func tokenFor(t *testing.T, jwtMgr *auth.JWTManager, email, name string) string {
	t.Helper()
	token, _, err := jwtMgr.GenerateToken(email, name)
	require.NoError(t, err)
	return token
}

func request(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// The full share handshake: the owner builds a list, shares it, and the
// recipient's acceptance materializes an independent copy.
func TestShareAcceptFlow(t *testing.T) {
	router, jwtMgr := apiForTest(t)

	alice := tokenFor(t, jwtMgr, "alice@example.com", "Alice")
	bruno := tokenFor(t, jwtMgr, "bruno@example.com", "Bruno")

	// Alice creates a list and fills it.
	w := request(router, http.MethodPost, "/api/lists", alice, gin.H{"name": "Spesa settimanale", "kind": "shopping"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var original data.SharedList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &original))
	listID := original.ID.Hex()

	w = request(router, http.MethodPost, "/api/lists/"+listID+"/items", alice, gin.H{"name": "Latte", "cost": 1.5, "priority": "alta"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = request(router, http.MethodPost, "/api/lists/"+listID+"/items", alice, gin.H{"name": "Pane", "cost": 2.0})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(router, http.MethodPost, "/api/lists/"+listID+"/chat", alice, gin.H{"text": "prendi anche le uova"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Alice shares with Bruno.
	w = request(router, http.MethodPost, "/api/lists/"+listID+"/share", alice, gin.H{"members": []string{"bruno@example.com"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Bruno sees the pending request in his inbox; Alice sees nothing.
	w = request(router, http.MethodGet, "/api/requests", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var inbox struct {
		Requests []data.ListShareRequest `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox.Requests, 1)
	assert.Equal(t, "alice@example.com", inbox.Requests[0].Sender)
	requestID := inbox.Requests[0].ID.Hex()

	w = request(router, http.MethodGet, "/api/requests", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var aliceInbox struct {
		Requests []data.ListShareRequest `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &aliceInbox))
	assert.Empty(t, aliceInbox.Requests)

	// Alice keeps editing after sharing; the snapshot must not pick this up.
	w = request(router, http.MethodPost, "/api/lists/"+listID+"/items", alice, gin.H{"name": "Caffè", "cost": 4.0})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Bruno accepts and receives his own copy.
	w = request(router, http.MethodPost, "/api/requests/"+requestID+"/respond", bruno, gin.H{"accept": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var copied data.SharedList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &copied))
	assert.NotEqual(t, listID, copied.ID.Hex())
	assert.Equal(t, []string{"bruno@example.com"}, copied.Members)
	assert.Equal(t, "alice@example.com", copied.SharedFrom)
	assert.Len(t, copied.Items, 2)
	assert.InDelta(t, 3.5, copied.TotalCost, 1e-9)
	assert.Empty(t, copied.ChatMessages)

	// The copy shows up under Bruno's lists and is fully independent: editing
	// it leaves Alice's list untouched.
	w = request(router, http.MethodGet, "/api/lists", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Lists []data.SharedList `json:"lists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine.Lists, 1)

	w = request(router, http.MethodDelete, "/api/lists/"+copied.ID.Hex()+"/items/"+copied.Items[0].ID, bruno, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(router, http.MethodGet, "/api/lists/"+listID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var after data.SharedList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Len(t, after.Items, 3)

	// A second response to the same request is rejected.
	w = request(router, http.MethodPost, "/api/requests/"+requestID+"/respond", bruno, gin.H{"accept": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShareRejectFlow(t *testing.T) {
	router, jwtMgr := apiForTest(t)

	alice := tokenFor(t, jwtMgr, "alice@example.com", "Alice")
	bruno := tokenFor(t, jwtMgr, "bruno@example.com", "Bruno")

	w := request(router, http.MethodPost, "/api/lists", alice, gin.H{"name": "Dispensa", "kind": "pantry"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var original data.SharedList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &original))

	w = request(router, http.MethodPost, "/api/lists/"+original.ID.Hex()+"/share", alice, gin.H{"members": []string{"bruno@example.com"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(router, http.MethodGet, "/api/requests", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox struct {
		Requests []data.ListShareRequest `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox.Requests, 1)

	w = request(router, http.MethodPost, "/api/requests/"+inbox.Requests[0].ID.Hex()+"/respond", bruno, gin.H{"accept": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// no copy for Bruno, and his inbox is drained
	w = request(router, http.MethodGet, "/api/lists", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Lists []data.SharedList `json:"lists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Empty(t, mine.Lists)

	w = request(router, http.MethodGet, "/api/requests", bruno, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	assert.Empty(t, inbox.Requests)
}
