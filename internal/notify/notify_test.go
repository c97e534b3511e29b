package notify

import (
	"reflect"
	"testing"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	var n Notifier[int]
	var got []string

	n.Subscribe(func(v int) { got = append(got, "a") })
	n.Subscribe(func(v int) { got = append(got, "b") })
	n.Subscribe(func(v int) { got = append(got, "c") })

	if delivered := n.Publish(1); delivered != 3 {
		t.Fatalf("delivered = %d, want 3", delivered)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestUnsubscribe_StopsDeliveryAndIsIdempotent(t *testing.T) {
	var n Notifier[string]
	calls := 0
	unsubscribe := n.Subscribe(func(string) { calls++ })
	other := 0
	n.Subscribe(func(string) { other++ })

	n.Publish("x")
	unsubscribe()
	unsubscribe()
	n.Publish("y")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if other != 2 {
		t.Fatalf("other = %d, want 2", other)
	}
	if n.Len() != 1 {
		t.Fatalf("Len = %d, want 1", n.Len())
	}
}

func TestPublish_PanickingHandlerIsIsolated(t *testing.T) {
	var recovered []any
	n := New[int](func(r any) { recovered = append(recovered, r) })

	var after int
	n.Subscribe(func(int) { panic("boom") })
	n.Subscribe(func(v int) { after = v })

	delivered := n.Publish(42)

	if after != 42 {
		t.Fatalf("subsequent handler got %d, want 42", after)
	}
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
	if len(recovered) != 1 || recovered[0] != "boom" {
		t.Fatalf("recovered = %v, want [boom]", recovered)
	}
}

func TestPublish_UnsubscribeDuringDelivery(t *testing.T) {
	var n Notifier[int]
	var second int
	var unsubscribeSecond func()

	n.Subscribe(func(int) { unsubscribeSecond() })
	unsubscribeSecond = n.Subscribe(func(v int) { second += v })

	n.Publish(1)
	n.Publish(1)

	if second != 1 {
		t.Fatalf("second = %d, want 1 (removed after first publish)", second)
	}
}

func TestSubscribe_NilHandlerIgnored(t *testing.T) {
	var n Notifier[int]
	unsubscribe := n.Subscribe(nil)
	unsubscribe()
	if n.Len() != 0 {
		t.Fatalf("Len = %d, want 0", n.Len())
	}
	if n.Publish(1) != 0 {
		t.Fatal("Publish with no subscribers should deliver 0")
	}
}

func TestPanicError(t *testing.T) {
	err := &PanicError{Value: "boom"}
	if err.Error() != "handler panicked: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
