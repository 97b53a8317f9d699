package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/palemoky/migoyugo-server/internal/config"
	"github.com/palemoky/migoyugo-server/internal/logger"
	"github.com/palemoky/migoyugo-server/internal/network/server"
)

// 优雅关闭时等待对局结束的上限
const shutdownTimeout = 60 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 文件日志，记录 panic 和关键事件
	if err := logger.Init(); err != nil {
		log.Printf("初始化日志文件失败: %v", err)
	}
	defer logger.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			panic(r)
		}
	}()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.LogError("创建服务器失败: %v", err)
		log.Fatalf("创建服务器失败: %v", err)
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("正在关闭服务器...")
		logger.LogInfo("收到退出信号，开始优雅关闭")
		srv.GracefulShutdown(shutdownTimeout)
		os.Exit(0)
	}()

	// 启动服务器
	log.Println("🎮 migoyugo 服务器启动中...")
	logger.LogInfo("服务器启动，监听 %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.Start(); err != nil {
		logger.LogError("服务器启动失败: %v", err)
		log.Fatalf("服务器启动失败: %v", err)
	}
}
