package serial

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line   string
		want   Event
		wantOK bool
	}{
		{"restart", Restart(), true},
		{"Restart", Restart(), true},
		{"  RESTART \r", Restart(), true},
		{"reset timer", ResetTimer(), true},
		{"Reset Timer", ResetTimer(), true},
		{"0", LivesUpdate(0), true},
		{"9", LivesUpdate(9), true},
		{" 07 ", LivesUpdate(7), true},
		{"", Event{}, false},
		{"   ", Event{}, false},
		{"-1", Event{}, false},
		{"+3", Event{}, false},
		{"3 lives", Event{}, false},
		{"1.5", Event{}, false},
		{"reset  timer", Event{}, false},
		{"restarting", Event{}, false},
		{"hello", Event{}, false},
		{"99999999999999999999999", Event{}, false},
		{"٣", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.line), func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("ParseLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineDigitsAlwaysLivesUpdate(t *testing.T) {
	for n := 0; n <= 1000; n++ {
		got, ok := ParseLine(strconv.Itoa(n))
		if !ok || got != LivesUpdate(n) {
			t.Fatalf("ParseLine(%d) = %v, %v", n, got, ok)
		}
	}
}

func TestDecoderSplitsLinesInOrder(t *testing.T) {
	var dec Decoder

	got := dec.Feed([]byte("9\r\n8\nnoise\nRestart\r\nreset timer\n7\n"))
	want := []Event{LivesUpdate(9), LivesUpdate(8), Restart(), ResetTimer(), LivesUpdate(7)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Feed mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderReassemblesLinesAcrossReads(t *testing.T) {
	var dec Decoder
	var got []Event

	for _, chunk := range []string{"1", "2\r", "\nres", "et ti", "mer\n", "4"} {
		got = append(got, dec.Feed([]byte(chunk))...)
	}
	if ev, ok := dec.Flush(); ok {
		got = append(got, ev)
	}

	want := []Event{LivesUpdate(12), ResetTimer(), LivesUpdate(4)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderDropsOversizedLine(t *testing.T) {
	var dec Decoder
	junk := make([]byte, maxLineLength+1)
	for i := range junk {
		junk[i] = '1'
	}

	if got := dec.Feed(junk); len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
	got := dec.Feed([]byte("\n5\n"))
	if diff := cmp.Diff([]Event{LivesUpdate(5)}, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderDropsTailOfOversizedLine(t *testing.T) {
	var dec Decoder
	noise := bytes.Repeat([]byte("x"), maxLineLength+904)

	if got := dec.Feed(noise); len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
	if got := dec.Feed([]byte("xx")); len(got) != 0 {
		t.Fatalf("expected no events while discarding, got %v", got)
	}
	if got := dec.Feed([]byte("7\n")); len(got) != 0 {
		t.Fatalf("tail of an oversized line produced %v", got)
	}

	got := dec.Feed([]byte("3\n"))
	if diff := cmp.Diff([]Event{LivesUpdate(3)}, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushWhileDiscarding(t *testing.T) {
	var dec Decoder
	dec.Feed(bytes.Repeat([]byte("1"), maxLineLength+1))
	dec.Feed([]byte("0"))

	if ev, ok := dec.Flush(); ok {
		t.Fatalf("expected nothing from a discarded line, got %v", ev)
	}
	if got := dec.Feed([]byte("2\n")); len(got) != 1 || got[0] != LivesUpdate(2) {
		t.Fatalf("decoder did not recover after flush: %v", got)
	}
}

func TestFlushEmpty(t *testing.T) {
	var dec Decoder
	if _, ok := dec.Flush(); ok {
		t.Fatal("expected no event from empty decoder")
	}
}
