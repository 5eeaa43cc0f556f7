package dispatcher_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
)

func okFunc(msg string, prio int) *handler.HandlerFunc {
	return handler.NewHandlerFuncWithPriority(func(input.Action, *execctx.ExecutionContext) handler.Result {
		return handler.SuccessWithMessage(msg)
	}, prio)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("Test", okFunc("a", 0))

	if registry.Get("Test") == nil {
		t.Fatal("expected non-nil handler")
	}
	if registry.Get("Missing") != nil {
		t.Error("expected nil for missing action")
	}
	if !registry.Has("Test") || registry.Has("Missing") {
		t.Error("Has() disagrees with registrations")
	}
}

func TestRegistryPriority(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("Test", okFunc("first", 0))
	registry.Register("Test", okFunc("high", 10))
	registry.Register("Test", okFunc("second", 0))

	var got []string
	for _, h := range registry.GetAll("Test") {
		got = append(got, h.Handle(input.NewAction("Test"), nil).Message)
	}
	want := []string{"high", "first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("handler order = %v, want %v", got, want)
	}
}

func TestRegistryUnregister(t *testing.T) {
	registry := dispatcher.NewRegistry()
	a, b := okFunc("a", 0), okFunc("b", 0)
	registry.Register("Test", a)
	registry.Register("Test", b)

	registry.UnregisterHandler("Test", a)
	if all := registry.GetAll("Test"); len(all) != 1 || all[0] != handler.Handler(b) {
		t.Errorf("GetAll after UnregisterHandler = %v", all)
	}

	registry.Unregister("Test")
	if registry.Has("Test") {
		t.Error("expected action to be removed")
	}
}

func TestRegistryRegisterAll(t *testing.T) {
	registry := dispatcher.NewRegistry()
	cmd := handler.Command("One", nil, nil)

	if err := registry.RegisterAll(cmd); err != nil {
		t.Fatalf("RegisterAll() error: %v", err)
	}
	if registry.Get("One") != handler.Handler(cmd) {
		t.Error("expected command handler under its ID")
	}

	err := registry.RegisterAll(okFunc("anon", 0))
	if !errors.Is(err, dispatcher.ErrInvalidAction) {
		t.Errorf("RegisterAll(unnamed) = %v, want ErrInvalidAction", err)
	}
}

func TestRegistryListAndClear(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("b", okFunc("b", 0))
	registry.Register("a", okFunc("a", 0))

	if got := registry.List(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("List() = %v", got)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d", registry.Count())
	}

	registry.Clear()
	if registry.Count() != 0 {
		t.Errorf("Count() after Clear = %d", registry.Count())
	}
}
