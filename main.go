package main

import (
	"github.com/ChenViVi/roselia-board-game/config"
	"github.com/ChenViVi/roselia-board-game/logger"
	"github.com/ChenViVi/roselia-board-game/models"
	"github.com/ChenViVi/roselia-board-game/monitor"
	"github.com/ChenViVi/roselia-board-game/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	rules := models.Rules{
		SpawnX:        cfg.Game.SpawnX,
		SpawnY:        cfg.Game.SpawnY,
		StartingScore: cfg.Game.StartingScore,
		DiceSides:     cfg.Game.DiceSides,
	}

	// Metrics endpoint
	mon := monitor.NewMonitor("roselia")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, rules, mon)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
