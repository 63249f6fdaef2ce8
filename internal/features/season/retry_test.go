package season

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

var errFlood = errors.New("too many requests")

// floodSender отвечает лимитом первые floods вызовов.
type floodSender struct {
	fakeSender
	floods int
	tries  int
}

func (f *floodSender) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	f.tries++
	if f.tries <= f.floods {
		return errFlood
	}
	return f.fakeSender.SendVideo(ctx, chatID, fileID, caption)
}

func floodAfter(err error) (time.Duration, bool) {
	if errors.Is(err, errFlood) {
		return 2 * time.Second, true
	}
	return 0, false
}

func TestRetrierWaitsAndRetries(t *testing.T) {
	next := &floodSender{floods: 2}
	sleeper := &recordingSleep{}
	r := NewRetrier(next, floodAfter, time.Second, sleeper.Sleep)

	if err := r.SendVideo(context.Background(), 1, "v", "cap"); err != nil {
		t.Fatalf("SendVideo: %v", err)
	}
	if next.tries != 3 {
		t.Fatalf("tries = %d, want 3", next.tries)
	}
	if want := []time.Duration{3 * time.Second, 3 * time.Second}; !reflect.DeepEqual(sleeper.delays, want) {
		t.Fatalf("delays = %v, want %v", sleeper.delays, want)
	}
	if got := next.Calls(); !reflect.DeepEqual(got, []string{"video:v:cap"}) {
		t.Fatalf("calls = %v", got)
	}
}

func TestRetrierPassesOtherErrors(t *testing.T) {
	next := &fakeSender{failAt: 1, err: errBoom}
	sleeper := &recordingSleep{}
	r := NewRetrier(next, floodAfter, time.Second, sleeper.Sleep)

	if err := r.SendText(context.Background(), 1, "x"); !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want errBoom", err)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("unexpected waits: %v", sleeper.delays)
	}
}

func TestRetrierStopsOnCancel(t *testing.T) {
	next := &floodSender{floods: 100}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(next, floodAfter, 0, nil)
	if err := r.SendVideo(ctx, 1, "v", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if next.tries != 1 {
		t.Fatalf("tries = %d, want 1", next.tries)
	}
}
