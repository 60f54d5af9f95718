package kv_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/haivivi/voicebridge/pkg/kv"
)

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s kv.Store)) {
	t.Run("memory", func(t *testing.T) {
		s := kv.NewMemory()
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("badger", func(t *testing.T) {
		s, err := kv.NewBadger(kv.BadgerOptions{
			InMemory: true,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		if err != nil {
			t.Fatalf("NewBadger: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestGetSetDelete(t *testing.T) {
	stores(t, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		key := kv.Key{"calls", "abc"}

		if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
		}
		if err := s.Set(ctx, key, []byte("one")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, key, []byte("two")); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "two" {
			t.Errorf("Get = %q, want %q", got, "two")
		}

		if err := s.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("Get after delete: err = %v", err)
		}
		if err := s.Delete(ctx, kv.Key{"no", "such"}); err != nil {
			t.Errorf("Delete missing: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	stores(t, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		for _, k := range []kv.Key{
			{"calls", "b"},
			{"calls", "a"},
			{"callsx", "c"},
			{"other", "d"},
		} {
			if err := s.Set(ctx, k, []byte(k.String())); err != nil {
				t.Fatalf("Set %v: %v", k, err)
			}
		}

		var got []string
		for e, err := range s.List(ctx, kv.Key{"calls"}) {
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			got = append(got, e.Key.String())
			if string(e.Value) != e.Key.String() {
				t.Errorf("value of %v = %q", e.Key, e.Value)
			}
		}
		want := []string{"calls:a", "calls:b"}
		if !slices.Equal(got, want) {
			t.Errorf("List(calls) = %v, want %v", got, want)
		}

		n := 0
		for range s.List(ctx, nil) {
			n++
		}
		if n != 4 {
			t.Errorf("List(nil) yielded %d entries, want 4", n)
		}

		// Early break must not panic or deadlock.
		for range s.List(ctx, kv.Key{"calls"}) {
			break
		}
	})
}

func TestBatchDelete(t *testing.T) {
	stores(t, func(t *testing.T, s kv.Store) {
		ctx := context.Background()
		for _, id := range []string{"1", "2", "3"} {
			if err := s.Set(ctx, kv.Key{"calls", id}, []byte(id)); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.BatchDelete(ctx, []kv.Key{{"calls", "1"}, {"calls", "3"}}); err != nil {
			t.Fatalf("BatchDelete: %v", err)
		}
		if _, err := s.Get(ctx, kv.Key{"calls", "2"}); err != nil {
			t.Errorf("calls:2 should survive: %v", err)
		}
		if _, err := s.Get(ctx, kv.Key{"calls", "1"}); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("calls:1 should be gone: %v", err)
		}
	})
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory()
	v := []byte("abc")
	s.Set(ctx, kv.Key{"k"}, v)
	v[0] = 'x'
	got, _ := s.Get(ctx, kv.Key{"k"})
	if string(got) != "abc" {
		t.Errorf("stored value mutated: %q", got)
	}
}

func TestNewBadger_RequiresDir(t *testing.T) {
	if _, err := kv.NewBadger(kv.BadgerOptions{}); err == nil {
		t.Fatal("expected error without Dir")
	}
}

func TestKeyString(t *testing.T) {
	if got := (kv.Key{"calls", "x"}).String(); got != "calls:x" {
		t.Errorf("String() = %q", got)
	}
}
