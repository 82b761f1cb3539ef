package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/tracker-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "tracker-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		Topics: config.MQTTTopicsConfig{Prefix: "tracker-test"},
	}
}

// connectOrSkip connects to the local broker, skipping the test when none
// is running.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	client, err := Connect(cfg)
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("tracker")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DeviceLocation", topics.DeviceLocation("phone-1"), "tracker/device/phone-1/location"},
		{"AllDeviceLocations", topics.AllDeviceLocations(), "tracker/device/+/location"},
		{"FixRecorded", topics.FixRecorded(), "tracker/fix/recorded"},
		{"Visits", topics.Visits("2024-06-01"), "tracker/visits/2024-06-01"},
		{"SystemStatus", topics.SystemStatus(), "tracker/system/status"},
		{"custom prefix", NewTopics("/fleet/a/").FixRecorded(), "fleet/a/fix/recorded"},
		{"empty prefix", NewTopics("").SystemStatus(), "tracker/system/status"},
		{"zero value", Topics{}.Visits("2024-06-01"), "tracker/visits/2024-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceFromTopic(t *testing.T) {
	topics := NewTopics("tracker")

	tests := []struct {
		topic  string
		device string
		ok     bool
	}{
		{"tracker/device/phone-1/location", "phone-1", true},
		{"tracker/device//location", "", false},
		{"tracker/device/a/b/location", "", false},
		{"other/device/phone-1/location", "", false},
		{"tracker/device/phone-1/status", "", false},
	}

	for _, tt := range tests {
		device, ok := topics.DeviceFromTopic(tt.topic)
		if device != tt.device || ok != tt.ok {
			t.Errorf("DeviceFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, device, ok, tt.device, tt.ok)
		}
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "tracker"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "tracker-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "tracker" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, NewTopics("fleet"), "tracker-test")

	if !opts.WillEnabled || opts.WillTopic != "fleet/system/status" {
		t.Errorf("will = (%v, %q), want enabled on fleet/system/status", opts.WillEnabled, opts.WillTopic)
	}
	if !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("will retained=%v qos=%d, want retained qos 1", opts.WillRetained, opts.WillQos)
	}
	if !strings.Contains(string(opts.WillPayload), `"reason":"unexpected_disconnect"`) {
		t.Errorf("will payload = %s", opts.WillPayload)
	}
}

func TestResolveClientID(t *testing.T) {
	cfg := testConfig()
	if got := resolveClientID(cfg); got != "tracker-test" {
		t.Errorf("resolveClientID() = %q, want configured id", got)
	}

	cfg.Broker.ClientID = ""
	a, b := resolveClientID(cfg), resolveClientID(cfg)
	if !strings.HasPrefix(a, clientIDPrefix) || len(a) != len(clientIDPrefix)+8 {
		t.Errorf("resolveClientID() = %q, want %s + 8 chars", a, clientIDPrefix)
	}
	if a == b {
		t.Errorf("generated client ids are not unique: %q", a)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestDisconnectedClient(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.IsConnected() {
		t.Error("IsConnected() = true, want false")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := client.PublishVisits("2024-06-01", []byte(`{}`)); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishVisits() error = %v, want ErrNotConnected", err)
	}
	if err := client.Subscribe("tracker/#", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "tracker/x", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "tracker/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{}

	if err := client.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("tracker/#", 3, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("tracker/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
}

// =============================================================================
// Broker Tests
// =============================================================================

func TestConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestVisitsRoundtrip(t *testing.T) {
	sub := connectOrSkip(t, "tracker-test-sub")
	pub := connectOrSkip(t, "tracker-test-pub")

	received := make(chan string, 1)
	err := sub.Subscribe(sub.Topics().Visits("2024-06-01"), 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !sub.HasSubscription(sub.Topics().Visits("2024-06-01")) {
		t.Error("HasSubscription() = false after Subscribe")
	}

	time.Sleep(100 * time.Millisecond)

	want := `{"date":"2024-06-01"}`
	if err := pub.PublishVisits("2024-06-01", []byte(want)); err != nil {
		t.Fatalf("PublishVisits() error = %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Errorf("received %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}

	// Clear the retained message.
	_ = pub.PublishRetained(pub.Topics().Visits("2024-06-01"), nil)
}

func TestDeviceLocationWildcard(t *testing.T) {
	client := connectOrSkip(t, "tracker-test-wild")

	received := make(chan string, 1)
	err := client.Subscribe(client.Topics().AllDeviceLocations(), 1, func(topic string, _ []byte) error {
		device, _ := client.Topics().DeviceFromTopic(topic)
		received <- device
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := client.Publish(client.Topics().DeviceLocation("phone-7"), []byte(`{}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case device := <-received:
		if device != "phone-7" {
			t.Errorf("device = %q, want phone-7", device)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}
}
