package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConnectDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 2 * time.Second},
		{attempt: 1, want: 4 * time.Second},
		{attempt: 3, want: 16 * time.Second},
		{attempt: 4, want: 30 * time.Second},
		{attempt: 40, want: 30 * time.Second},
	}

	for _, tt := range tests {
		if got := connectDelay(tt.attempt); got != tt.want {
			t.Errorf("connectDelay(%d): Expected %s, got %s", tt.attempt, tt.want, got)
		}
	}
}

func TestConnect_SingleAttemptFailure(t *testing.T) {
	t.Parallel()

	dials := 0
	_, err := connect(context.Background(), 1, nil, func() (*RabbitMQQueue, error) {
		dials++
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if dials != 1 {
		t.Errorf("Expected 1 dial, got %d", dials)
	}
}

func TestConnect_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dials := 0
	_, err := connect(ctx, 5, nil, func() (*RabbitMQQueue, error) {
		dials++
		return nil, errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if dials != 1 {
		t.Errorf("Expected 1 dial before cancellation, got %d", dials)
	}
}

func TestConnect_ReturnsQueue(t *testing.T) {
	t.Parallel()

	want := &RabbitMQQueue{}
	got, err := connect(context.Background(), 3, nil, func() (*RabbitMQQueue, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != want {
		t.Error("Expected the dialed queue to be returned")
	}
}
