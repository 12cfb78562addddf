package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	// Create a resource
	handle, err := b.Create(TypeClient, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get it back
	val, err := b.Get(handle, TypeClient)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	// Drop it
	val, released, err := b.Drop(handle, TypeClient)
	if err != nil || !released {
		t.Fatalf("Drop failed: released=%v err=%v", released, err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	// Should not exist anymore
	if _, err := b.Get(handle, TypeClient); !errors.Is(err, ErrStale) {
		t.Fatalf("Expected ErrStale after Drop, got %v", err)
	}
}

func TestLocalBackend_WrongType(t *testing.T) {
	b := NewLocalBackend()

	h, _ := b.Create(TypeResponse, "resp")
	if _, err := b.Get(h, TypeClient); !errors.Is(err, ErrWrongType) {
		t.Fatalf("Expected ErrWrongType, got %v", err)
	}
	if _, err := b.Get(h, TypeInvalid); err != nil {
		t.Fatalf("TypeInvalid should match any type: %v", err)
	}
	typeID, ok := b.TypeOf(h)
	if !ok || typeID != TypeResponse {
		t.Fatalf("TypeOf = %v, %v", typeID, ok)
	}
}

func TestLocalBackend_StaleAfterReuse(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(TypeBuffer, "first")
	b.Drop(h1, TypeBuffer)

	// The freed slot is reused under a new generation
	h2, _ := b.Create(TypeBuffer, "second")
	if h1.slot() != h2.slot() {
		t.Fatalf("expected slot reuse, got %d and %d", h1.slot(), h2.slot())
	}
	if h1 == h2 {
		t.Fatal("reused slot must yield a distinct handle")
	}

	if _, err := b.Get(h1, TypeBuffer); !errors.Is(err, ErrStale) {
		t.Fatalf("old handle should be stale, got %v", err)
	}
	if _, _, err := b.Drop(h1, TypeBuffer); !errors.Is(err, ErrStale) {
		t.Fatalf("double drop should be stale, got %v", err)
	}
	if v, _ := b.Get(h2, TypeBuffer); v != "second" {
		t.Fatalf("new handle resolved to %v", v)
	}
}

func TestLocalBackend_Borrow(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(TypeHeaderMap, 100)

	// Borrow
	if _, err := b.Borrow(handle, TypeHeaderMap); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	// Cannot consume with outstanding borrow
	if _, err := b.Take(handle, TypeHeaderMap); !errors.Is(err, ErrBusy) {
		t.Fatalf("Take should fail with ErrBusy, got %v", err)
	}
	if _, err := b.Replace(handle, TypeHeaderMap, 200); !errors.Is(err, ErrBusy) {
		t.Fatalf("Replace should fail with ErrBusy, got %v", err)
	}

	// Return borrow
	if _, released, err := b.ReturnBorrow(handle); err != nil || released {
		t.Fatalf("ReturnBorrow failed: released=%v err=%v", released, err)
	}

	// Now can take
	v, err := b.Take(handle, TypeHeaderMap)
	if err != nil || v != 100 {
		t.Fatalf("Take after return = %v, %v", v, err)
	}
}

func TestLocalBackend_DeferredDrop(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(TypeResponse, "body")

	// Multiple borrows
	for i := 0; i < 3; i++ {
		if _, err := b.Borrow(handle, TypeResponse); err != nil {
			t.Fatalf("Borrow %d failed: %v", i, err)
		}
	}

	// Drop while borrowed invalidates immediately but defers release
	_, released, err := b.Drop(handle, TypeResponse)
	if err != nil || released {
		t.Fatalf("Drop while borrowed: released=%v err=%v", released, err)
	}
	if _, err := b.Get(handle, TypeResponse); !errors.Is(err, ErrStale) {
		t.Fatalf("dropped handle should be stale, got %v", err)
	}
	if _, err := b.Borrow(handle, TypeResponse); !errors.Is(err, ErrStale) {
		t.Fatalf("dropped handle should not be borrowable, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Expected Len() == 0 after drop, got %d", b.Len())
	}

	// Return all borrows; only the last releases
	for i := 0; i < 3; i++ {
		v, released, err := b.ReturnBorrow(handle)
		if err != nil {
			t.Fatalf("ReturnBorrow %d failed: %v", i, err)
		}
		if last := i == 2; released != last {
			t.Fatalf("ReturnBorrow %d released=%v", i, released)
		}
		if released && v != "body" {
			t.Fatalf("released value = %v", v)
		}
	}

	if _, _, err := b.ReturnBorrow(handle); !errors.Is(err, ErrStale) {
		t.Fatalf("extra ReturnBorrow should be stale, got %v", err)
	}
}

func TestLocalBackend_Replace(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(TypeClientBuilder, "v1")
	h2, err := b.Replace(h1, TypeClientBuilder, "v2")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if h2 == h1 || h2 == 0 {
		t.Fatalf("Replace returned %#x for %#x", h2, h1)
	}
	if _, err := b.Get(h1, TypeClientBuilder); !errors.Is(err, ErrStale) {
		t.Fatalf("old handle should be stale, got %v", err)
	}
	if v, _ := b.Get(h2, TypeClientBuilder); v != "v2" {
		t.Fatalf("new handle resolved to %v", v)
	}
	if b.Len() != 1 {
		t.Fatalf("Replace changed Len() to %d", b.Len())
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()

	b.Create(TypeBuffer, 1)
	h, _ := b.Create(TypeBuffer, 2)
	b.Borrow(h, TypeBuffer)
	b.Drop(h, TypeBuffer)

	if values := b.Close(); len(values) != 2 {
		t.Fatalf("Close returned %d values, want live and pending", len(values))
	}

	// Operations should fail after close
	_, err := b.Create(TypeBuffer, "test")
	if !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}
	if values := b.Close(); values != nil {
		t.Fatal("second Close should be a no-op")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(TypeRequest, id)
			b.Borrow(h, TypeRequest)
			b.ReturnBorrow(h)
			h, _ = b.Replace(h, TypeRequest, id+1)
			b.Drop(h, TypeRequest)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", b.Len())
	}
}

func TestLocalBackend_Len(t *testing.T) {
	b := NewLocalBackend()

	if b.Len() != 0 {
		t.Fatal("Expected Len() == 0 initially")
	}

	h1, _ := b.Create(TypeProxy, "a")
	h2, _ := b.Create(TypeProxy, "b")
	b.Create(TypeProxy, "c")

	if b.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", b.Len())
	}

	b.Drop(h1, TypeProxy)
	if b.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", b.Len())
	}

	b.Take(h2, TypeProxy)
	if b.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()

	b.Create(TypeClient, "a")
	b.Create(TypeResponse, "b")
	b.Create(TypeClient, "c")

	count := 0
	b.Each(func(h Handle, typeID TypeID, value any) bool {
		if h == 0 || typeID == TypeInvalid {
			t.Errorf("Each yielded handle %#x of type %v", h, typeID)
		}
		count++
		return true
	})

	if count != 3 {
		t.Fatalf("Expected to iterate over 3 items, got %d", count)
	}

	// Test early termination
	count = 0
	b.Each(func(h Handle, typeID TypeID, value any) bool {
		count++
		return false
	})

	if count != 1 {
		t.Fatalf("Expected to iterate over 1 item (early term), got %d", count)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	// Handle 0 is always null
	if _, err := b.Get(0, TypeInvalid); !errors.Is(err, ErrNull) {
		t.Fatal("Handle 0 should be null")
	}
	if _, err := b.Borrow(0, TypeInvalid); !errors.Is(err, ErrNull) {
		t.Fatal("Handle 0 should fail Borrow")
	}
	if _, _, err := b.ReturnBorrow(0); !errors.Is(err, ErrNull) {
		t.Fatal("Handle 0 should fail ReturnBorrow")
	}
	if _, _, err := b.Drop(0, TypeInvalid); !errors.Is(err, ErrNull) {
		t.Fatal("Handle 0 should fail Drop")
	}

	// Non-existent handle
	if _, err := b.Get(999, TypeInvalid); !errors.Is(err, ErrStale) {
		t.Fatal("Non-existent handle should be stale")
	}
	if _, err := b.Get(makeHandle(0, 7), TypeInvalid); !errors.Is(err, ErrStale) {
		t.Fatal("Handle beyond the table should be stale")
	}
}
