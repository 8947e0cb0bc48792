package publish

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/packets"
	"github.com/eclipse/paho.golang/paho"

	"cansig/messaging"
)

type MQTTConfig struct {
	Broker    string `json:"broker"` // host:port
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Topic     string `json:"topic"` // prefix; the message name is appended
	QoS       byte   `json:"qos"`
	Retain    bool   `json:"retain"`
	KeepAlive uint16 `json:"keep_alive"`
}

// MQTT publishes decoded messages to <Topic>/<message name>.
type MQTT struct {
	cfg    MQTTConfig
	client *paho.Client
	now    func() time.Time
}

func DialMQTT(ctx context.Context, cfg MQTTConfig) (*MQTT, error) {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 30
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	conn = packets.NewThreadSafeConn(conn)

	client := paho.NewClient(paho.ClientConfig{
		Conn: conn,
	})
	cp := &paho.Connect{
		KeepAlive:    cfg.KeepAlive,
		ClientID:     cfg.ClientID,
		CleanStart:   true,
		Username:     cfg.Username,
		Password:     []byte(cfg.Password),
		UsernameFlag: cfg.Username != "",
		PasswordFlag: cfg.Password != "",
	}

	ca, err := client.Connect(ctx, cp)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	if ca.ReasonCode != 0 {
		_ = conn.Close()
		reason := ""
		if ca.Properties != nil {
			reason = ca.Properties.ReasonString
		}
		return nil, fmt.Errorf("mqtt connect %s: %d - %s", cfg.Broker, ca.ReasonCode, reason)
	}

	return &MQTT{cfg: cfg, client: client, now: time.Now}, nil
}

func (m *MQTT) Topic(name string) string {
	if m.cfg.Topic == "" {
		return name
	}
	return strings.TrimSuffix(m.cfg.Topic, "/") + "/" + name
}

func (m *MQTT) Publish(ctx context.Context, d messaging.Decoded) error {
	payload, err := Payload(d, m.now())
	if err != nil {
		return err
	}
	if _, err := m.client.Publish(ctx, &paho.Publish{
		Topic:   m.Topic(d.Name),
		QoS:     m.cfg.QoS,
		Retain:  m.cfg.Retain,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", d.Name, err)
	}
	return nil
}

func (m *MQTT) Close() error {
	return m.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}
