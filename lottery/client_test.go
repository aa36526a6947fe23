package lottery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffler/service"
)

func TestClient_GetResult(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/results/2025-03-15", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"date":"2025-03-15","first_prize":"84772","draw_number":"4523","series":"2"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	result, err := client.GetResult(context.Background(), date)

	require.NoError(t, err)
	assert.Equal(t, "84772", result.FirstPrize)
	assert.Equal(t, "4523", result.DrawNumber)
	assert.Equal(t, "2", result.Series)
	assert.True(t, result.IsOfficial)
}

func TestClient_GetResult_NotPublishedYet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.GetResult(context.Background(), time.Now())

	assert.ErrorIs(t, err, service.ErrLotteryUnavailable)
}

func TestClient_GetResult_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.GetResult(context.Background(), time.Now())

	assert.ErrorIs(t, err, service.ErrLotteryUnavailable)
}

func TestClient_GetResult_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	_, err := client.GetResult(context.Background(), time.Now())

	assert.ErrorIs(t, err, service.ErrLotteryUnavailable)
}

func TestClient_GetResult_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.GetResult(context.Background(), time.Now())

	assert.ErrorIs(t, err, service.ErrLotteryUnavailable)
}

func TestDevelopmentFeed_Deterministic(t *testing.T) {
	feed := NewDevelopmentFeed()
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	first, err := feed.GetResult(context.Background(), date)
	require.NoError(t, err)
	second, err := feed.GetResult(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, first.FirstPrize, second.FirstPrize)
	assert.False(t, first.IsOfficial)
	assert.Regexp(t, `^\d{5}$`, first.FirstPrize)
}
