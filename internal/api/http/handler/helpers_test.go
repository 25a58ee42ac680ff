package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apicontext "github.com/dtroode/eventpoll-server/internal/api/http/context"
	servermocks "github.com/dtroode/eventpoll-server/internal/mocks"
	"github.com/dtroode/eventpoll-server/internal/testutil"
	"github.com/dtroode/eventpoll-server/internal/timeutil"
)

var (
	_ EventService = (*servermocks.EventService)(nil)
	_ AuthService  = (*servermocks.AuthService)(nil)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type decoded struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newEventRouter mounts the event routes with userID already authenticated.
// A nil userID leaves the request anonymous.
func newEventRouter(svc *servermocks.EventService, userID uuid.UUID) *gin.Engine {
	cm := apicontext.NewManager()
	h := NewEvent(svc, cm, timeutil.NewParser(time.UTC), testutil.MakeNoopLogger())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Request = c.Request.WithContext(cm.SetUserIDToContext(c.Request.Context(), userID))
		}
		c.Next()
	})
	r.GET("/api/events", h.GetEvents)
	r.POST("/api/events", h.CreateEvent)
	r.GET("/api/events/:id", h.GetEvent)
	r.GET("/api/events/:id/status", h.EventStatus)
	r.POST("/api/events/:id/invite", h.Invite)
	r.POST("/api/events/:id/decline", h.Decline)
	r.POST("/api/events/:id/timeslots", h.ProposeTimeslot)
	r.POST("/api/events/:id/timeslots/:timeslotId/votes", h.CastVote)
	r.DELETE("/api/events/:id/timeslots/:timeslotId/votes", h.RemoveVote)
	r.GET("/api/events/:id/votes", h.GetVotes)
	r.POST("/api/events/:id/finalize", h.Finalize)
	r.GET("/api/events/:id/calendar.ics", h.Calendar)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) decoded {
	t.Helper()
	var out decoded
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
