package eventbus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/swarmcore/core"
)

var _ core.EventSink = (*NATSPublisher)(nil)

func newTestBroker(t *testing.T) (*Server, *NATSPublisher) {
	t.Helper()
	srv, err := NewServer(ServerConfig{})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	pub, err := NewNATSPublisher(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(pub.Close)
	return srv, pub
}

func TestNATSPublisher_PublishAndSubscribe(t *testing.T) {
	_, pub := newTestBroker(t)

	received := make(chan *nats.Msg, 1)
	_, err := pub.Subscribe(TopicEventsAll, func(msg *nats.Msg) {
		received <- msg
	})
	require.NoError(t, err)

	ev := core.NewHandoffEvent("r1", "researcher", "planner", "findings ready")
	require.NoError(t, pub.Publish(ev))
	require.NoError(t, pub.FlushTimeout(2*time.Second))

	select {
	case msg := <-received:
		assert.Equal(t, "events.swarm.handoff", msg.Subject)
		var decoded core.Event
		require.NoError(t, json.Unmarshal(msg.Data, &decoded))
		assert.Equal(t, ev.ID, decoded.ID)
		assert.Equal(t, core.EventHandoff, decoded.Type)
		assert.Equal(t, "planner", decoded.Payload["to"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestNATSPublisher_SubjectFiltering(t *testing.T) {
	_, pub := newTestBroker(t)

	runEvents := make(chan *nats.Msg, 4)
	_, err := pub.Subscribe(TopicEventsRun, func(msg *nats.Msg) {
		runEvents <- msg
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(core.NewRunTransitionEvent("r1", core.RunPending, core.RunRunning)))
	require.NoError(t, pub.Publish(core.NewConsolidationEvent(1, 2, 3)))
	require.NoError(t, pub.FlushTimeout(2*time.Second))

	select {
	case msg := <-runEvents:
		assert.Equal(t, "events.run.transition", msg.Subject)
	case <-time.After(2 * time.Second):
		t.Fatal("run transition never delivered")
	}
	// The consolidation event must not match the run subject.
	select {
	case msg := <-runEvents:
		t.Fatalf("unexpected message on run subject: %s", msg.Subject)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServer_RandomPort(t *testing.T) {
	a, err := NewServer(ServerConfig{})
	require.NoError(t, err)
	defer a.Close()
	b, err := NewServer(ServerConfig{})
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.ClientURL(), b.ClientURL())
}
