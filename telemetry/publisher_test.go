package telemetry

import "testing"

func TestSubscribeReceivesPublishedSnapshot(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer p.Close()

	ch := p.Subscribe(1)
	snap := Snapshot{TimestampSec: 1, State: 1, LeftFootRatio: 0.5}
	p.Publish(snap)

	select {
	case got := <-ch:
		if got != snap {
			t.Fatalf("expected %+v, got %+v", snap, got)
		}
	default:
		t.Fatal("expected a buffered snapshot on the subscriber channel")
	}
}

func TestPublishNeverBlocksWhenSubscriberFull(t *testing.T) {
	p, err := NewPublisher()
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer p.Close()

	ch := p.Subscribe(1)
	p.Publish(Snapshot{TimestampSec: 1})
	p.Publish(Snapshot{TimestampSec: 2}) // must not block even though ch is full
	<-ch
}
