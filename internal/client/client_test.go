package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markis/bizcoach/internal/coach"
	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/logging"
	"github.com/markis/bizcoach/internal/quota"
	"github.com/markis/bizcoach/internal/segment"
	"github.com/markis/bizcoach/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoachServer(t *testing.T, producer coach.Producer, limiter *quota.Limiter) *httptest.Server {
	t.Helper()
	logging.Init("error", io.Discard)

	scenes := coach.NewCatalogue(nil)
	s := server.New(config.Default().Server, coach.NewPrompter(segment.SchemaB, scenes), scenes, producer, limiter)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url, user string) *Client {
	cfg := config.Default().Client
	cfg.URL = url + "/"
	cfg.UserID = user
	return New(cfg, segment.SchemaB)
}

func TestAskStreamsSnapshots(t *testing.T) {
	srv := newCoachServer(t, coach.NewScriptedProducer(coach.DemoResponse(segment.SchemaB), 3, 0), nil)

	var snaps []segment.Snapshot
	got, err := newClient(srv.URL, "u1").Ask(context.Background(), server.ChatRequest{
		Scene:       "morning-sync",
		UserMessage: "I finish report yesterday",
	}, func(s segment.Snapshot) { snaps = append(snaps, s) })
	require.NoError(t, err)

	assert.NotEmpty(t, got.Next)
	assert.NotEmpty(t, got.NextJP)
	assert.NotEmpty(t, got.Refactored)
	assert.NotEmpty(t, got.Analysis)
	assert.Empty(t, got.Note)

	require.Greater(t, len(snaps), 1)
	assert.Equal(t, got, snaps[len(snaps)-1])
}

func TestAskClassifiesFailures(t *testing.T) {
	limiter, err := quota.NewLimiter(quota.NewMemoryStore(), 1, "UTC")
	require.NoError(t, err)
	srv := newCoachServer(t, coach.NewScriptedProducer(coach.DemoResponse(segment.SchemaB), 16, 0), limiter)
	req := server.ChatRequest{UserMessage: "hello"}

	_, err = newClient(srv.URL, "").Ask(context.Background(), req, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)

	c := newClient(srv.URL, "u1")
	_, err = c.Ask(context.Background(), req, nil)
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), req, nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 1, reqErr.Limit)
	assert.Equal(t, "Daily limit reached", reqErr.Message)
}

func TestAskUpstreamFailure(t *testing.T) {
	producer := coach.ProducerFunc(func(context.Context, coach.Prompt) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			yield("", errors.New("model unavailable"))
		}
	})
	srv := newCoachServer(t, producer, nil)

	_, err := newClient(srv.URL, "u1").Ask(context.Background(), server.ChatRequest{UserMessage: "hi"}, nil)
	require.ErrorIs(t, err, ErrRequestFailed)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.Status)
	assert.Equal(t, "model unavailable", reqErr.Detail)
}

func TestAskWithoutTagsIsEmpty(t *testing.T) {
	srv := newCoachServer(t, coach.NewScriptedProducer("Sure, here is my answer.", 4, 0), nil)

	got, err := newClient(srv.URL, "u1").Ask(context.Background(), server.ChatRequest{UserMessage: "hi"}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.True(t, got.IsEmpty())
}

func TestAskUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url, "u1").Ask(context.Background(), server.ChatRequest{UserMessage: "hi"}, nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestSessionKeepsHistory(t *testing.T) {
	requests := make(chan server.ChatRequest, 4)
	replies := []string{
		"[NEXT]Great, send it over.[TRANSLATION]いいですね。",
		"[TRANSLATION]only a translation",
		"[NEXT]Thanks!",
	}
	turn := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req server.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		_, _ = io.WriteString(w, replies[turn])
		turn++
	}))
	defer srv.Close()

	s := NewSession(newClient(srv.URL, "u1"), "morning-sync", "Morning! Any updates?")
	assert.Equal(t, "morning-sync", s.Scene())

	snap, err := s.Send(context.Background(), "I finished the report", nil)
	require.NoError(t, err)
	assert.Equal(t, "Great, send it over.", snap.Next)

	first := <-requests
	assert.Equal(t, "morning-sync", first.Scene)
	assert.Equal(t, []coach.Turn{{Role: coach.RolePartner, Text: "Morning! Any updates?"}}, first.History)

	_, err = s.Send(context.Background(), "ok", nil)
	require.NoError(t, err)
	<-requests
	assert.Len(t, s.History(), 3, "a reply without a next line is not recorded")

	_, err = s.Send(context.Background(), "Will do", nil)
	require.NoError(t, err)
	third := <-requests
	assert.Equal(t, []coach.Turn{
		{Role: coach.RolePartner, Text: "Morning! Any updates?"},
		{Role: coach.RoleUser, Text: "I finished the report"},
		{Role: coach.RolePartner, Text: "Great, send it over."},
	}, third.History)
	assert.Len(t, s.History(), 5)
}

func TestSessionTrimsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "[NEXT]and then?")
	}))
	defer srv.Close()

	s := NewSession(newClient(srv.URL, "u1"), "", "")
	s.maxHistory = 4
	for i := 0; i < 5; i++ {
		_, err := s.Send(context.Background(), "more", nil)
		require.NoError(t, err)
	}
	h := s.History()
	require.Len(t, h, 4)
	assert.Equal(t, coach.RoleUser, h[0].Role)
}
