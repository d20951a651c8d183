package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sentinel-lockup-service/internal/infrastructure/config"
	Logger "sentinel-lockup-service/pkg/logger"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTNotifier publishes lockup events to the broker.
// Privileged topics go under <prefix>/admin/ so broker ACLs can restrict them.
type MQTTNotifier struct {
	Config *config.Config
	Client mqtt.Client

	connectMutex sync.Mutex
}

// NewMQTTNotifier 创建MQTT通知器，不立即连接
func NewMQTTNotifier(cfg *config.Config) *MQTTNotifier {
	n := &MQTTNotifier{Config: cfg}
	n.setupMQTTClient()
	return n
}

// setupMQTTClient 设置MQTT客户端
func (n *MQTTNotifier) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(n.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", n.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if n.Config.MQTTUsername != "" {
		opts.SetUsername(n.Config.MQTTUsername)
		opts.SetPassword(n.Config.MQTTPassword)
	}

	url := n.Config.MQTTBrokerURL
	if strings.HasPrefix(url, "ssl://") || strings.HasPrefix(url, "tls://") || n.Config.MQTTSSLEnabled {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		Logger.Warning("[MQTT] connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		Logger.Info("[MQTT] connected to %s", n.Config.MQTTBrokerURL)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		Logger.Info("[MQTT] reconnecting...")
	})

	n.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带有指数退避重试
func (n *MQTTNotifier) Connect(ctx context.Context) error {
	n.connectMutex.Lock()
	defer n.connectMutex.Unlock()

	if n.Client.IsConnected() {
		return nil
	}

	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		token := n.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			return nil
		}
		err = token.Error()
		if err == nil {
			err = fmt.Errorf("connect timed out")
		}

		backoff := time.Duration(1<<uint(i)) * time.Second // 1s, 2s, 4s, 8s, 16s
		Logger.Warning("[MQTT] connect attempt %d/%d failed: %v, retrying in %v", i+1, maxRetries, err, backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("[MQTT] connect aborted: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("[MQTT] connect failed after %d attempts: %w", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (n *MQTTNotifier) Disconnect() {
	if n.Client != nil && n.Client.IsConnected() {
		n.Client.Disconnect(250)
	}
}

// TopicFor maps a lockup topic to its broker topic
func (n *MQTTNotifier) TopicFor(topic string) string {
	prefix := strings.Trim(n.Config.MQTTTopicPrefix, "/")
	if IsPrivilegedTopic(topic) {
		return prefix + "/admin/" + topic
	}
	return prefix + "/" + topic
}

// Notify publishes the event and waits for the broker ack up to the context deadline
func (n *MQTTNotifier) Notify(ctx context.Context, topic string, payload interface{}) error {
	if !n.Client.IsConnected() {
		return fmt.Errorf("[MQTT] client not connected, dropping %s", topic)
	}

	data, err := json.Marshal(NewEvent(topic, payload))
	if err != nil {
		return fmt.Errorf("[MQTT] encode %s: %w", topic, err)
	}

	token := n.Client.Publish(n.TopicFor(topic), byte(n.Config.MQTTQoS), n.Config.MQTTRetained, data)

	wait := 3 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("[MQTT] publish %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("[MQTT] publish %s: %w", topic, err)
	}
	return nil
}
