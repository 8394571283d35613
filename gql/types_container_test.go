package gql

import (
	"errors"
	"sync"
	"testing"

	"github.com/GannettDigital/graphql"
)

func TestTypeRegistry(t *testing.T) {
	tr := NewTypeRegistry(IterableType)

	if !tr.Has("Iterable") {
		t.Errorf("Expected the Iterable type to be registered")
	}
	if tr.Has("DateTime") {
		t.Errorf("Expected the DateTime type to not be registered")
	}

	if _, err := tr.Get("DateTime"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("Got error %v, want ErrTypeNotFound", err)
	}

	tr.Set("DateTime", dateTimeType)
	got, err := tr.Get("DateTime")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != dateTimeType {
		t.Errorf("Got %v, want %v", got, dateTimeType)
	}

	tr.Set("Alias", graphql.String)
	all := tr.All()
	want := []graphql.Type{graphql.String, dateTimeType, IterableType}
	if len(all) != len(want) {
		t.Fatalf("Got %d types, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("Type %d: got %v, want %v", i, all[i], want[i])
		}
	}
}

func TestTypeRegistry_Concurrent(t *testing.T) {
	tr := NewTypeRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Set("DateTime", dateTimeType)
			tr.Has("DateTime")
			tr.All()
		}()
	}
	wg.Wait()

	if len(tr.All()) != 1 {
		t.Errorf("Got %d types, want 1", len(tr.All()))
	}
}
