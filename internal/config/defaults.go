package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			ReadTimeout: Duration{30 * time.Second},
			// Sem timeout de escrita: /video_feed e /ws mantêm a conexão aberta
			WriteTimeout:     Duration{0},
			ShutdownTimeout:  Duration{10 * time.Second},
			ControlRateLimit: 5,
			ControlBurst:     10,
		},
		Acquisition: AcquisitionConfig{
			Mode:               "simulation",
			ArmedOnStart:       true,
			SimulationInterval: Duration{3000 * time.Millisecond},
			LiveInterval:       Duration{500 * time.Millisecond},
			Seed:               0,
		},
		Backend: BackendConfig{
			BaseURL:            "http://localhost:5000",
			StatusPath:         "/status",
			VideoPath:          "/video_feed",
			EmailPath:          "/update-email",
			Timeout:            Duration{2 * time.Second},
			VideoProbeInterval: Duration{5 * time.Second},
			RecomputeLocally:   false,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			Password:    "",
			DB:          0,
			Prefix:      "safety_shield",
			Enabled:     true,
			SnapshotTTL: Duration{10 * time.Second},
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "safety-shield-monitor",
			Topic:    "safety-shield/alerts",
			QoS:      1,
		},
		Alert: AlertConfig{
			Enabled:  true,
			Cooldown: Duration{30 * time.Second},
		},
		PLC: PLCConfig{
			Enabled:      false,
			Host:         "192.168.1.100",
			Rack:         0,
			Slot:         1,
			DBNumber:     20,
			UpdateRate:   Duration{500 * time.Millisecond},
			ReadTimeout:  Duration{5 * time.Second},
			WriteTimeout: Duration{5 * time.Second},
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Dir:    "logs",
		},
	}
}
