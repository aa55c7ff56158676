package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrierRoundTrip(t *testing.T) {
	c := &headerCarrier{}

	if got := c.Get("traceparent"); got != "" {
		t.Fatalf("empty carrier returned %q", got)
	}
	if keys := c.Keys(); keys != nil {
		t.Fatalf("empty carrier has keys %v", keys)
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("got %q", got)
	}
	if keys := c.Keys(); len(keys) != 1 {
		t.Fatalf("got keys %v", keys)
	}
}

func TestHeaderCarrierSharesMsgHeaders(t *testing.T) {
	msg := &nats.Msg{Subject: "x"}
	c := (*headerCarrier)(msg)
	c.Set("k", "v")
	if msg.Header.Get("k") != "v" {
		t.Fatal("carrier writes must land on the message headers")
	}
}

func TestPublishRejectsUnmarshalableValue(t *testing.T) {
	// Marshal failure happens before the connection is touched.
	err := Publish(t.Context(), nil, "subject", make(chan int))
	if err == nil {
		t.Fatal("expected marshal error")
	}
}
