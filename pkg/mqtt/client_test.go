package mqtt

import "testing"

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"gnc/v1/command/m1", "gnc/v1/command/m1", true},
		{"gnc/v1/command/+", "gnc/v1/command/m1", true},
		{"gnc/v1/command/+", "gnc/v1/command/ack/m1", false},
		{"gnc/v1/command/ack/+", "gnc/v1/command/ack/m1", true},
		{"gnc/v1/#", "gnc/v1/mission/status", true},
		{"gnc/v1/#", "gnc/v2/mission/status", false},
		{"+/v1/mission/submit", "gnc/v1/mission/submit", true},
		{"gnc/v1/mission/submit", "gnc/v1/mission", false},
		{"gnc/v1/+", "gnc/v1", false},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilterSharedSubscription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$share/sequencer/gnc/v1/command/ack/+", "gnc/v1/command/ack/+"},
		{"gnc/v1/command/ack/+", "gnc/v1/command/ack/+"},
		{"$share/bad", "$share/bad"},
	}

	for _, tt := range tests {
		if got := topicFilter(tt.in); got != tt.want {
			t.Errorf("topicFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewClient(&ClientConfig{}); err == nil {
		t.Error("expected error for missing broker url")
	}
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "seq-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsConnected() {
		t.Error("client must not report connected before Start")
	}
}
