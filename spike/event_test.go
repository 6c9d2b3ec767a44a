package spike

import "testing"

func TestEvent_AnyActive(t *testing.T) {
	if New(0, []uint8{0, 0, 0}).AnyActive() {
		t.Fatalf("all-zero event reported active")
	}
	if !New(0, []uint8{0, 1, 0}).AnyActive() {
		t.Fatalf("event with a set spike reported inactive")
	}
	if New(0, nil).AnyActive() {
		t.Fatalf("empty event reported active")
	}
}
