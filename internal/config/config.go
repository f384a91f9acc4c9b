package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"shield_go/internal/models"
)

// DefaultConfigFile é o arquivo lido quando SHIELD_CONFIG não está definido
const DefaultConfigFile = "config.json"

// Config representa a configuração completa da aplicação
type Config struct {
	Server      ServerConfig      `json:"server"`
	Acquisition AcquisitionConfig `json:"acquisition"`
	Backend     BackendConfig     `json:"backend"`
	Redis       RedisConfig       `json:"redis"`
	MQTT        MQTTConfig        `json:"mqtt"`
	Alert       AlertConfig       `json:"alert"`
	PLC         PLCConfig         `json:"plc"`
	Discovery   DiscoveryConfig   `json:"discovery"`
	Log         LogConfig         `json:"log"`
}

// Duration aceita tanto "500ms"/"3s" quanto nanossegundos no JSON
type Duration struct {
	time.Duration
}

// UnmarshalJSON implementa json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("duração inválida %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("duração inválida: %s", string(b))
	}
	return nil
}

// MarshalJSON implementa json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int      `json:"port"`
	ReadTimeout     Duration `json:"readTimeout"`
	WriteTimeout    Duration `json:"writeTimeout"`
	ShutdownTimeout Duration `json:"shutdownTimeout"`
	// Requisições por segundo aceitas nos endpoints de controle (arm/disarm/mode)
	ControlRateLimit float64 `json:"controlRateLimit"`
	ControlBurst     int     `json:"controlBurst"`
}

// AcquisitionConfig contém a configuração do controlador de aquisição
type AcquisitionConfig struct {
	Mode               string   `json:"mode"`
	ArmedOnStart       bool     `json:"armedOnStart"`
	SimulationInterval Duration `json:"simulationInterval"`
	LiveInterval       Duration `json:"liveInterval"`
	// Semente do gerador de simulação; 0 usa o relógio
	Seed int64 `json:"seed"`
}

// BackendConfig contém configurações do backend de detecção
type BackendConfig struct {
	BaseURL            string   `json:"baseUrl"`
	StatusPath         string   `json:"statusPath"`
	VideoPath          string   `json:"videoPath"`
	EmailPath          string   `json:"emailPath"`
	Timeout            Duration `json:"timeout"`
	VideoProbeInterval Duration `json:"videoProbeInterval"`
	// Recalcula total/status localmente em vez de confiar no servidor
	RecomputeLocally bool `json:"recomputeLocally"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	Password    string   `json:"password"`
	DB          int      `json:"db"`
	Prefix      string   `json:"prefix"`
	Enabled     bool     `json:"enabled"`
	SnapshotTTL Duration `json:"snapshotTtl"`
}

// MQTTConfig contém configurações do broker MQTT para alertas
type MQTTConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"clientId"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// AlertConfig contém configurações do despacho de alertas de perigo
type AlertConfig struct {
	Enabled          bool     `json:"enabled"`
	Cooldown         Duration `json:"cooldown"`
	EmergencyContact string   `json:"emergencyContact"`
}

// PLCConfig contém configurações para espelhar o status em um PLC S7
type PLCConfig struct {
	Enabled      bool     `json:"enabled"`
	Host         string   `json:"host"`
	Rack         int      `json:"rack"`
	Slot         int      `json:"slot"`
	DBNumber     int      `json:"dbNumber"`
	UpdateRate   Duration `json:"updateRate"`
	ReadTimeout  Duration `json:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout"`
}

// DiscoveryConfig contém configurações do anúncio mDNS
type DiscoveryConfig struct {
	Enabled bool `json:"enabled"`
}

// LogConfig contém configurações de log
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Dir    string `json:"dir"`
}

// Load carrega a configuração do arquivo indicado por SHIELD_CONFIG (ou config.json)
func Load() (*Config, error) {
	return LoadFile(getEnv("SHIELD_CONFIG", DefaultConfigFile))
}

// LoadFile carrega a configuração do arquivo ou usa valores padrão
func LoadFile(path string) (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat(path); err == nil {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("erro ao abrir %s: %w", path, err)
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, fmt.Errorf("erro ao decodificar %s: %w", path, err)
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate verifica valores que impediriam o controlador de funcionar
func (c *Config) Validate() error {
	if _, err := models.ParseMode(c.Acquisition.Mode); err != nil {
		return err
	}
	if c.Acquisition.SimulationInterval.Duration <= 0 {
		return fmt.Errorf("acquisition.simulationInterval deve ser positivo")
	}
	if c.Acquisition.LiveInterval.Duration <= 0 {
		return fmt.Errorf("acquisition.liveInterval deve ser positivo")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port inválida: %d", c.Server.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.baseUrl não pode ser vazio")
	}
	return nil
}

// InitialMode retorna o modo de aquisição já validado
func (c *Config) InitialMode() models.Mode {
	mode, err := models.ParseMode(c.Acquisition.Mode)
	if err != nil {
		return models.ModeSimulation
	}
	return mode
}

// VideoURL retorna a URL completa do stream de vídeo do backend
func (c *Config) VideoURL() string {
	return strings.TrimRight(c.Backend.BaseURL, "/") + c.Backend.VideoPath
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	config.Server.Port = getEnvInt("SHIELD_SERVER_PORT", config.Server.Port)

	config.Acquisition.Mode = getEnv("SHIELD_MODE", config.Acquisition.Mode)
	config.Acquisition.ArmedOnStart = getEnvBool("SHIELD_ARMED", config.Acquisition.ArmedOnStart)
	config.Acquisition.Seed = int64(getEnvInt("SHIELD_SIM_SEED", int(config.Acquisition.Seed)))

	config.Backend.BaseURL = getEnv("SHIELD_BACKEND_URL", config.Backend.BaseURL)
	config.Backend.RecomputeLocally = getEnvBool("SHIELD_BACKEND_RECOMPUTE", config.Backend.RecomputeLocally)

	config.Redis.Enabled = getEnvBool("SHIELD_REDIS_ENABLED", config.Redis.Enabled)
	config.Redis.Host = getEnv("SHIELD_REDIS_HOST", config.Redis.Host)
	config.Redis.Port = getEnvInt("SHIELD_REDIS_PORT", config.Redis.Port)
	config.Redis.Password = getEnv("SHIELD_REDIS_PASSWORD", config.Redis.Password)

	config.MQTT.Enabled = getEnvBool("SHIELD_MQTT_ENABLED", config.MQTT.Enabled)
	config.MQTT.Broker = getEnv("SHIELD_MQTT_BROKER", config.MQTT.Broker)
	config.MQTT.Username = getEnv("SHIELD_MQTT_USERNAME", config.MQTT.Username)
	config.MQTT.Password = getEnv("SHIELD_MQTT_PASSWORD", config.MQTT.Password)

	config.Alert.EmergencyContact = getEnv("SHIELD_ALERT_EMAIL", config.Alert.EmergencyContact)

	config.PLC.Enabled = getEnvBool("SHIELD_PLC_ENABLED", config.PLC.Enabled)
	config.PLC.Host = getEnv("SHIELD_PLC_HOST", config.PLC.Host)

	config.Discovery.Enabled = getEnvBool("SHIELD_DISCOVERY_ENABLED", config.Discovery.Enabled)

	config.Log.Level = getEnv("SHIELD_LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnv("SHIELD_LOG_FORMAT", config.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
