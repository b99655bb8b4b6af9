package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type publish struct {
	topic   string
	qos     byte
	payload string
}

type fakeMQTTClient struct {
	mqtt.Client
	connected    bool
	published    []publish
	failAt       int // 1-based publish that fails
	pending      bool
	disconnected bool
}

func (c *fakeMQTTClient) IsConnected() bool { return c.connected }

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, publish{topic: topic, qos: qos, payload: string(payload.([]byte))})
	if c.pending {
		return &fakeToken{done: make(chan struct{})}
	}
	if c.failAt == len(c.published) {
		return completedToken(errors.New("not authorized"))
	}
	return completedToken(nil)
}

func (c *fakeMQTTClient) Disconnect(uint) { c.disconnected = true }

func newTestMQTTSink(client *fakeMQTTClient, maxBytes int) *MQTTSink {
	cfg := MQTTConfig{Broker: "tcp://localhost:1883", Topic: "sck/readings", QoS: 1, MaxBatchBytes: maxBytes}
	cfg.ApplyDefaults()
	return NewMQTTSink(cfg, client)
}

func TestMQTTSinkPublishesInOrder(t *testing.T) {
	client := &fakeMQTTClient{connected: true}
	sink := newTestMQTTSink(client, 1024)

	batch, err := sink.CreateBatch(context.Background())
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	for _, p := range []string{"one", "two", "three"} {
		if ok, _ := batch.TryAppend([]byte(p)); !ok {
			t.Fatalf("expected %s to fit", p)
		}
	}
	if err := sink.Send(context.Background(), batch); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(client.published) != 3 {
		t.Fatalf("expected 3 publishes, got %d", len(client.published))
	}
	for i, want := range []string{"one", "two", "three"} {
		got := client.published[i]
		if got.payload != want || got.topic != "sck/readings" || got.qos != 1 {
			t.Fatalf("publish %d: unexpected %+v", i, got)
		}
	}
}

func TestMQTTSinkPublishError(t *testing.T) {
	client := &fakeMQTTClient{connected: true, failAt: 2}
	sink := newTestMQTTSink(client, 1024)

	batch, _ := sink.CreateBatch(context.Background())
	_, _ = batch.TryAppend([]byte("a"))
	_, _ = batch.TryAppend([]byte("b"))
	if err := sink.Send(context.Background(), batch); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestMQTTSinkSendHonoursContext(t *testing.T) {
	client := &fakeMQTTClient{connected: true, pending: true}
	sink := newTestMQTTSink(client, 1024)

	batch, _ := sink.CreateBatch(context.Background())
	_, _ = batch.TryAppend([]byte("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sink.Send(ctx, batch); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMQTTSinkByteBudget(t *testing.T) {
	sink := newTestMQTTSink(&fakeMQTTClient{connected: true}, 5)

	batch, _ := sink.CreateBatch(context.Background())
	if ok, _ := batch.TryAppend([]byte("abc")); !ok {
		t.Fatalf("expected payload to fit")
	}
	if ok, _ := batch.TryAppend([]byte("abc")); ok {
		t.Fatalf("expected payload over budget to be rejected")
	}
}

func TestMQTTSinkCreateBatchRequiresConnection(t *testing.T) {
	sink := newTestMQTTSink(&fakeMQTTClient{}, 1024)
	if _, err := sink.CreateBatch(context.Background()); err == nil {
		t.Fatalf("expected disconnected client to fail batch creation")
	}
}

func TestMQTTSinkClose(t *testing.T) {
	client := &fakeMQTTClient{connected: true}
	sink := newTestMQTTSink(client, 1024)
	if err := sink.Close(context.Background()); err != nil || !client.disconnected {
		t.Fatalf("expected client to disconnect, err=%v", err)
	}
}

func TestMQTTConfigValidate(t *testing.T) {
	cfg := MQTTConfig{Broker: "tcp://localhost:1883", Topic: "sck/#"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected wildcard topic to be rejected")
	}
}
