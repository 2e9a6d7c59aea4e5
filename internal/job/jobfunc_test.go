package job

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNotify_NilGuard(t *testing.T) {
	t.Parallel()
	var got error
	n := Notify(nil, func(err error) { got = err })
	err := n.Run(context.Background())
	if !errors.Is(err, ErrNilJobFunc) {
		t.Fatalf("expected ErrNilJobFunc, got %v", err)
	}
	n.Complete(err)
	if !errors.Is(got, ErrNilJobFunc) {
		t.Fatalf("done must see the nil-func error, got %v", got)
	}
}

func TestFetch_KeepsDataOfSuccessfulAttempt(t *testing.T) {
	t.Parallel()
	var (
		gotData any
		gotErr  error
		calls   int
	)
	f := &Fetch{
		Key: "disasters",
		Load: func(context.Context) (any, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("reset")
			}
			return []string{"d1"}, nil
		},
		Done: func(data any, err error) { gotData, gotErr = data, err },
	}
	if err := f.Run(context.Background()); err == nil {
		t.Fatalf("first attempt should fail")
	}
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	f.Complete(nil)
	if gotErr != nil {
		t.Fatalf("unexpected error %v", gotErr)
	}
	if d, ok := gotData.([]string); !ok || len(d) != 1 || d[0] != "d1" {
		t.Fatalf("unexpected data %#v", gotData)
	}
}

func TestFetch_FinalErrorDropsData(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("gone")
	var gotData any = "unset"
	var gotErr error
	f := &Fetch{
		Load: func(context.Context) (any, error) { return "x", nil },
		Done: func(data any, err error) { gotData, gotErr = data, err },
	}
	_ = f.Run(context.Background())
	f.Complete(sentinel)
	if !errors.Is(gotErr, sentinel) || gotData != nil {
		t.Fatalf("expected (nil, sentinel), got (%v, %v)", gotData, gotErr)
	}
}

func TestFetch_AttemptTimeout(t *testing.T) {
	t.Parallel()
	f := &Fetch{
		Timeout: 10 * time.Millisecond,
		Load: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	if err := f.Run(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNotify_ReportsOutcome(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("geocode failed")
	var got error
	n := Notify(func(context.Context) error { return sentinel }, func(err error) { got = err })
	err := n.Run(context.Background())
	n.Complete(err)
	if !errors.Is(got, sentinel) {
		t.Fatalf("expected sentinel, got %v", got)
	}
}
