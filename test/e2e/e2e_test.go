// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/api"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/events"
)

const rosterChannel = "activities.roster"

type stack struct {
	client   *apphttp.Client
	registry *activities.Registry
	redis    *database.RedisClient
	sub      *redis.PubSub
	sqlMock  sqlmock.Sqlmock
}

// newStack wires the server the way cmd/activities-server does, with
// miniredis and sqlmock standing in for Redis and PostgreSQL.
func newStack(t *testing.T, opts activities.Options) *stack {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	registry, err := activities.New(activities.DefaultSeed(), opts)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := database.NewRedis(config.RedisConfig{Enabled: true, Address: mr.Addr()})
	require.NoError(t, database.RetryWithBackoff(ctx, rdb.Ping, 3, 10*time.Millisecond, log, "Redis connection"))
	t.Cleanup(func() { _ = rdb.Close() })

	sub := rdb.Client.Subscribe(ctx, rosterChannel)
	_, err = sub.Receive(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	audit, err := events.NewAuditLog(db, "signup_events")
	require.NoError(t, err)

	dispatcher := events.NewDispatcher(time.Second, log,
		events.NewRedisPublisher(rdb.Client, rosterChannel),
		audit,
	)

	server := api.NewServer(api.Options{
		Registry:   registry,
		Dispatcher: dispatcher,
		History:    audit,
		Logger:     log,
		Checks:     map[string]api.ReadinessCheck{"redis": rdb.Ping},
	})

	srv := httptest.NewServer(server.Routes())
	t.Cleanup(srv.Close)

	return &stack{
		client:   apphttp.NewClient(srv.URL, 5*time.Second),
		registry: registry,
		redis:    rdb,
		sub:      sub,
		sqlMock:  sqlMock,
	}
}

func (s *stack) expectAudit(eventType, activity, email string) {
	s.sqlMock.ExpectExec(`INSERT INTO signup_events`).
		WithArgs(sqlmock.AnyArg(), eventType, activity, email, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func (s *stack) nextEvent(t *testing.T) events.Event {
	t.Helper()
	select {
	case msg := <-s.sub.Channel():
		var e events.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no roster event published")
		return events.Event{}
	}
}

func TestFullE2E(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, activities.Options{})
	email := "newstudent@mergington.edu"

	t.Log("Listing activities...")
	roster, err := s.client.Activities(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 9)
	assert.NotContains(t, roster["Chess Club"].Participants, email)

	t.Log("Signing up...")
	s.expectAudit("signed_up", "Chess Club", email)
	msg, err := s.client.Signup(ctx, "Chess Club", email)
	require.NoError(t, err)
	assert.Equal(t, "Signed up newstudent@mergington.edu for Chess Club", msg)

	event := s.nextEvent(t)
	assert.Equal(t, events.TypeSignedUp, event.Type)
	assert.Equal(t, email, event.Email)

	roster, err = s.client.Activities(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"michael@mergington.edu", "daniel@mergington.edu", email},
		roster["Chess Club"].Participants,
	)

	t.Log("Rejecting a duplicate sign-up...")
	_, err = s.client.Signup(ctx, "Chess Club", email)
	assertAPIError(t, err, http.StatusBadRequest, "Student is already signed up for this activity")

	t.Log("Unregistering...")
	s.expectAudit("unregistered", "Chess Club", email)
	msg, err = s.client.Unregister(ctx, "Chess Club", email)
	require.NoError(t, err)
	assert.Equal(t, "Unregistered newstudent@mergington.edu from Chess Club", msg)
	assert.Equal(t, events.TypeUnregistered, s.nextEvent(t).Type)

	_, err = s.client.Unregister(ctx, "Chess Club", email)
	assertAPIError(t, err, http.StatusBadRequest, "Student is not registered for this activity")

	_, err = s.client.Signup(ctx, "Underwater Basket Weaving", email)
	assertAPIError(t, err, http.StatusNotFound, "Activity not found")

	roster, err = s.client.Activities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, roster["Chess Club"].Participants)

	assert.NoError(t, s.sqlMock.ExpectationsWereMet())
}

func TestE2E_SinkOutageDoesNotFailRequests(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, activities.Options{})

	s.sqlMock.ExpectExec(`INSERT INTO signup_events`).WillReturnError(errors.New("connection reset"))
	require.NoError(t, s.redis.Close())

	_, err := s.client.Signup(ctx, "Gym Class", "outage@mergington.edu")
	require.NoError(t, err)

	got, err := s.registry.Get("Gym Class")
	require.NoError(t, err)
	assert.Contains(t, got.Participants, "outage@mergington.edu")
}

func TestE2E_ConcurrentSignupsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, activities.Options{EnforceCapacity: true})
	s.sqlMock.MatchExpectationsInOrder(false)

	// Math Club seats 10 and starts with 2.
	const attempts = 20
	for i := 0; i < 8; i++ {
		s.sqlMock.ExpectExec(`INSERT INTO signup_events`).WillReturnResult(sqlmock.NewResult(1, 1))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.client.Signup(ctx, "Math Club", fmt.Sprintf("student%02d@mergington.edu", i))

			mu.Lock()
			defer mu.Unlock()
			var apiErr *apphttp.APIError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &apiErr) && apiErr.Detail == "Activity is full":
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, accepted)
	assert.Equal(t, attempts-8, full)

	got, err := s.registry.Get("Math Club")
	require.NoError(t, err)
	assert.Len(t, got.Participants, 10)
}

func assertAPIError(t *testing.T, err error, status int, detail string) {
	t.Helper()
	var apiErr *apphttp.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, status, apiErr.Status)
	assert.Equal(t, detail, apiErr.Detail)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkSignupUnregister(b *testing.B) {
	registry, err := activities.New(activities.DefaultSeed(), activities.Options{})
	require.NoError(b, err)

	server := api.NewServer(api.Options{
		Registry:   registry,
		Dispatcher: events.NewDispatcher(time.Second, logger.NewNoOpLogger()),
		Logger:     logger.NewNoOpLogger(),
	})
	handler := server.Routes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodPost, "/activities/Chess%20Club/signup?email=bench@mergington.edu", nil),
			httptest.NewRequest(http.MethodDelete, "/activities/Chess%20Club/unregister?email=bench@mergington.edu", nil),
		} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				b.Fatalf("unexpected status %d", rec.Code)
			}
		}
	}
}

func BenchmarkListActivities(b *testing.B) {
	registry, err := activities.New(activities.DefaultSeed(), activities.Options{})
	require.NoError(b, err)
	handler := api.NewServer(api.Options{Registry: registry}).Routes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))
	}
}
