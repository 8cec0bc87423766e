package presenter

import (
	"io"
	"sync"

	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/card"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleFrame() Frame {
	return Frame{
		Size: 4,
		View: card.View{
			Title: "Batteries",
			Items: []battery.View{
				{EntityID: "sensor.door", Name: "Door", Level: "80", Unit: "%", Color: "var(--label-badge-green)", Icon: "mdi:battery-80"},
				{EntityID: "sensor.phone", Name: "Phone", Level: "35", Unit: "%", Color: "rgb(200,120,0)", Charging: true, SecondaryInfo: "Charging"},
			},
			Groups: []card.GroupView{{
				Name: "Low (1)",
				Items: []battery.View{
					{EntityID: "sensor.remote", Name: "Remote", Level: "9", Unit: "%", Color: "var(--label-badge-red)"},
				},
			}},
		},
	}
}

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeMQTT struct {
	mu        sync.Mutex
	connected bool
	messages  []published
	handlers  map[string]func(string, []byte)
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{connected: true, handlers: map[string]func(string, []byte){}}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic, string(payload), retained})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, handler func(string, []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) IsConnected() bool { return f.connected }

func (f *fakeMQTT) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.topic)
	}
	return out
}

func (f *fakeMQTT) last(topic string) (published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].topic == topic {
			return f.messages[i], true
		}
	}
	return published{}, false
}
