package discovery

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/grandcat/zeroconf"

	"shield_go/pkg/logger"
)

const (
	// ServiceName é o nome do serviço para descoberta na rede
	ServiceName = "safety-shield-monitor"

	// ServiceDomain é o domínio para descoberta na rede
	ServiceDomain = "local."

	// ServiceType define o tipo de serviço
	ServiceType = "_safetyshield._tcp"

	// DisplayName aparece nos metadados e nas respostas do servidor
	DisplayName = "Safety Shield Monitor"
)

// DiscoveryService anuncia o monitor via mDNS para que painéis na rede local o encontrem
type DiscoveryService struct {
	server       *zeroconf.Server
	mutex        sync.Mutex
	instanceName string
	port         int
	version      string
	running      bool
}

// NewDiscoveryService cria um novo serviço de descoberta
func NewDiscoveryService(port int, version string) *DiscoveryService {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "localhost"
	}

	return &DiscoveryService{
		port:         port,
		version:      version,
		instanceName: fmt.Sprintf("%s-shield", hostname),
	}
}

// Start registra o serviço no mDNS
func (s *DiscoveryService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	ip, err := LocalIP()
	if err != nil {
		return fmt.Errorf("erro ao obter IP local: %w", err)
	}

	server, err := zeroconf.Register(
		s.instanceName,
		ServiceType,
		ServiceDomain,
		s.port,
		TXTRecords(s.version, ip),
		nil, // todas as interfaces
	)
	if err != nil {
		return fmt.Errorf("erro ao registrar serviço de descoberta: %w", err)
	}

	s.server = server
	s.running = true

	logger.Infof("Serviço de descoberta iniciado em %s:%d (mDNS: %s.%s)",
		ip, s.port, s.instanceName, ServiceType)

	return nil
}

// Stop para o serviço de descoberta
func (s *DiscoveryService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
	}
	s.running = false

	logger.Info("Serviço de descoberta parado")
}

// TXTRecords monta os metadados publicados junto ao registro mDNS
func TXTRecords(version, ip string) []string {
	return []string{
		"version=" + version,
		"ip=" + ip,
		"name=" + DisplayName,
		"ws=/ws",
		"api=/api",
	}
}

// LocalIP obtém o primeiro endereço IPv4 que não seja de loopback
func LocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "", fmt.Errorf("não foi possível determinar o endereço IP local")
}

// GetInstanceName retorna o nome da instância do serviço
func (s *DiscoveryService) GetInstanceName() string {
	return s.instanceName
}

// IsRunning verifica se o serviço está em execução
func (s *DiscoveryService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}
