package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shield_go/internal/config"
	"shield_go/internal/server"
	"shield_go/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	displayBanner()

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.Dir != "" {
		if err := logger.EnableFileLogging(cfg.Log.Dir, "shield"); err != nil {
			logger.Warnf("Log em arquivo desabilitado: %v", err)
		}
	}

	logger.Info("Iniciando Safety Shield Monitor")
	logger.Infof("Configuração carregada: modo %s, backend em %s, Redis em %s:%d",
		cfg.InitialMode(), cfg.Backend.BaseURL, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Cadência: simulação %v, ao vivo %v",
		cfg.Acquisition.SimulationInterval.Duration, cfg.Acquisition.LiveInterval.Duration)

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
  ____        __      _              ____  _     _      _     _
 / ___|  __ _/ _| ___| |_ _   _     / ___|| |__ (_) ___| | __| |
 \___ \ / _' | |_ / _ \ __| | | |    \___ \| '_ \| |/ _ \ |/ _' |
  ___) | (_| |  _|  __/ |_| |_| |     ___) | | | | |  __/ | (_| |
 |____/ \__,_|_|  \___|\__|\__, |    |____/|_| |_|_|\___|_|\__,_|
                           |___/                    threat monitor v` + server.Version + `
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
