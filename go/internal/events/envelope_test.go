package events

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestNewAndDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	in := RunOverPayload{RunID: "r1", Outcome: "OUT_OF_LIVES", ElapsedSeconds: 42, LivesLeft: 0, EndedAt: at.UTC()}

	env, err := New(TypeRunOver, "r1", at, in)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if env.ID == uuid.Nil {
		t.Fatal("expected an event id")
	}
	if env.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", env.Timestamp)
	}

	var out RunOverPayload
	if err := env.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsUnmarshalablePayload(t *testing.T) {
	if _, err := New(TypeRunStarted, "", time.Now(), make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestEmittersFanOutInOrder(t *testing.T) {
	var got []string
	record := func(name string) Emitter {
		return EmitterFunc(func(env Envelope) { got = append(got, name+":"+env.Type) })
	}

	Emitters{record("a"), nil, record("b")}.Emit(Envelope{Type: TypeRunStarted})

	want := []string{"a:run.started", "b:run.started"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("emit order mismatch (-want +got):\n%s", diff)
	}
}
