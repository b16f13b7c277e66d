package kvstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

// storeFactories lets the contract tests run against every implementation.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemory()
	},
	"sqlite": func(t *testing.T) Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	},
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if err := s.Write(ctx, "adapter/state", []byte("v1")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := s.Read(ctx, "adapter/state")
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !bytes.Equal(got, []byte("v1")) {
				t.Errorf("Read() = %q, want v1", got)
			}

			// Overwrite replaces the value.
			if err := s.Write(ctx, "adapter/state", []byte("v2")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, _ = s.Read(ctx, "adapter/state")
			if !bytes.Equal(got, []byte("v2")) {
				t.Errorf("Read() after overwrite = %q, want v2", got)
			}
		})
	}
}

func TestStore_ReadMissingKey(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if _, err := s.Read(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Read(missing) error = %v, want ErrKeyNotFound", err)
			}
		})
	}
}

func TestStore_DeleteAndExists(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if err := s.Write(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			ok, err := s.Exists(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Exists(k) = %v, %v, want true, nil", ok, err)
			}

			deleted, err := s.Delete(ctx, "k")
			if err != nil || !deleted {
				t.Fatalf("Delete(k) = %v, %v, want true, nil", deleted, err)
			}
			deleted, err = s.Delete(ctx, "k")
			if err != nil || deleted {
				t.Errorf("second Delete(k) = %v, %v, want false, nil", deleted, err)
			}
			ok, _ = s.Exists(ctx, "k")
			if ok {
				t.Error("Exists(k) after delete = true")
			}
		})
	}
}

func TestStore_ListKeysByPrefix(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			for _, key := range []string{"tags/b", "tags/a", "state/x", "tags_c"} {
				if err := s.Write(ctx, key, []byte("v")); err != nil {
					t.Fatalf("Write(%q) error = %v", key, err)
				}
			}

			got, err := s.ListKeys(ctx, "tags/")
			if err != nil {
				t.Fatalf("ListKeys() error = %v", err)
			}
			want := []string{"tags/a", "tags/b"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ListKeys(tags/) = %v, want %v", got, want)
			}

			all, err := s.ListKeys(ctx, "")
			if err != nil {
				t.Fatalf("ListKeys(\"\") error = %v", err)
			}
			if len(all) != 4 {
				t.Errorf("ListKeys(\"\") returned %d keys, want 4", len(all))
			}
		})
	}
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if err := s.Write(ctx, "", []byte("v")); !errors.Is(err, ErrEmptyKey) {
				t.Errorf("Write(\"\") error = %v, want ErrEmptyKey", err)
			}
			if _, err := s.Read(ctx, ""); !errors.Is(err, ErrEmptyKey) {
				t.Errorf("Read(\"\") error = %v, want ErrEmptyKey", err)
			}
		})
	}
}
