package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// Publisher é o subconjunto do cliente MQTT usado pelo notificador
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient encapsula o cliente paho
type MQTTClient struct {
	client mqtt.Client
}

// NewMQTTClient conecta ao broker configurado
func NewMQTTClient(cfg config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warnf("Conexão MQTT perdida: %v", err)
	})

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("erro ao conectar ao broker MQTT %s: %w", cfg.Broker, token.Error())
	}

	logger.Infof("Conectado ao broker MQTT %s", cfg.Broker)
	return &MQTTClient{client: client}, nil
}

// Publish publica uma mensagem e aguarda a confirmação
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("erro ao publicar no tópico %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect encerra a conexão com o broker
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250)
}

// MQTTNotifier publica alertas em JSON em um tópico MQTT
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	qos       byte
}

// NewMQTTNotifier cria o notificador para o tópico configurado
func NewMQTTNotifier(publisher Publisher, topic string, qos byte) *MQTTNotifier {
	return &MQTTNotifier{publisher: publisher, topic: topic, qos: qos}
}

// Name implementa Notifier
func (n *MQTTNotifier) Name() string { return "mqtt" }

// Notify implementa Notifier
func (n *MQTTNotifier) Notify(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("erro ao serializar alerta: %w", err)
	}
	return n.publisher.Publish(n.topic, n.qos, false, payload)
}
