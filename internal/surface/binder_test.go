package surface_test

import (
	"testing"

	"studio/internal/surface"
)

func TestBinder_CloseUnregistersAll(t *testing.T) {
	mock := surface.NewMock()
	binder := surface.NewBinder(mock)

	var fired int
	binder.On(surface.EventContentChanged, func(...any) { fired++ })
	binder.On(surface.EventPageSelected, func(...any) { fired++ })
	binder.On(surface.EventContentChanged, func(...any) { fired++ })

	mock.Fire(surface.EventContentChanged)
	mock.Fire(surface.EventPageSelected)
	if fired != 3 {
		t.Fatalf("expected 3 handler calls before close, got %d", fired)
	}

	binder.Close()
	mock.Fire(surface.EventContentChanged)
	mock.Fire(surface.EventPageSelected)
	if fired != 3 {
		t.Errorf("handlers fired after Close: %d calls", fired)
	}
	if mock.ActiveListeners(surface.EventContentChanged) != 0 {
		t.Error("listeners still registered on the surface after Close")
	}
}

func TestBinder_RegistrationAfterCloseIgnored(t *testing.T) {
	mock := surface.NewMock()
	binder := surface.NewBinder(mock)
	binder.Close()

	var fired bool
	binder.On(surface.EventSurfaceReady, func(...any) { fired = true })
	mock.Fire(surface.EventSurfaceReady)
	if fired {
		t.Error("registration after Close must be ignored")
	}
	if binder.Active() != 0 {
		t.Errorf("expected 0 active registrations, got %d", binder.Active())
	}
}

func TestBinder_CloseIdempotent(t *testing.T) {
	mock := surface.NewMock()
	binder := surface.NewBinder(mock)
	binder.On(surface.EventFrameLoaded, func(...any) {})
	binder.Close()
	binder.Close() // must not panic or double-cancel
}
