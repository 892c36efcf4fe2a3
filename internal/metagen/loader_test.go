package metagen

import (
	"context"
	"errors"
	"testing"
)

func TestLoaderLoadsBothCatalogs(t *testing.T) {
	rc := testRefContext()
	l := NewLoader(&fakeRefRepo{rows: rc.Refs}, &fakeModuleRepo{rows: rc.Modules}, testLogger(t))

	got, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Refs) != len(rc.Refs) || len(got.Modules) != len(rc.Modules) {
		t.Fatalf("partial load: %d refs, %d modules", len(got.Refs), len(got.Modules))
	}
	if !got.KnownCodes()["4.15"] {
		t.Fatal("known codes missing 4.15")
	}
}

func TestLoaderFailsWhenEitherFetchFails(t *testing.T) {
	rc := testRefContext()

	l := NewLoader(&fakeRefRepo{err: errors.New("storage down")}, &fakeModuleRepo{rows: rc.Modules}, testLogger(t))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error when reference fetch fails")
	}

	l = NewLoader(&fakeRefRepo{rows: rc.Refs}, &fakeModuleRepo{err: errors.New("storage down")}, testLogger(t))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error when module fetch fails")
	}
}

func TestLoaderRejectsEmptyCatalogs(t *testing.T) {
	rc := testRefContext()

	l := NewLoader(&fakeRefRepo{}, &fakeModuleRepo{rows: rc.Modules}, testLogger(t))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error for empty reference catalog")
	}

	l = NewLoader(&fakeRefRepo{rows: rc.Refs}, &fakeModuleRepo{}, testLogger(t))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error for empty module catalog")
	}
}
