// Package telemetry publishes a best-effort cycle report over MQTT once
// per connected wake cycle. The station is asleep almost all the time, so
// the client connects lazily when a report is due instead of holding a
// session open.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/cycle"
)

const publishTimeout = 5 * time.Second

type Publisher struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger
}

func NewPublisher(broker string, port int, clientID, stationID string, log *slog.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", broker, port))
	opts.SetClientID(clientID)

	// One short-lived session per wake cycle; reconnect machinery would
	// outlive the cycle and is deliberately off.
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(publishTimeout)

	return &Publisher{
		client: mqtt.NewClient(opts),
		topic:  fmt.Sprintf("stations/%s/cycle", stationID),
		log:    log,
	}
}

// ReportCycle connects if needed and publishes the report. Any failure is
// returned for logging; the caller treats telemetry as best effort.
func (p *Publisher) ReportCycle(ctx context.Context, r cycle.Report) error {
	if !p.client.IsConnected() {
		if err := p.connect(ctx); err != nil {
			return err
		}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish report: %w", token.Error())
	}

	p.log.Debug("cycle report published", "topic", p.topic, "outcome", r.Outcome)
	return nil
}

func (p *Publisher) connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Disconnect closes the MQTT connection. Safe to call when never connected.
func (p *Publisher) Disconnect() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.log.Debug("mqtt disconnected")
	}
}
