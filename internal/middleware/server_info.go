package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"inventory-service/internal/config"

	"go.uber.org/zap"
)

// ServerInfo muestra el banner del servidor al iniciar
func ServerInfo(cfg *config.Config, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	numCPU := runtime.NumCPU()
	startTime := time.Now().Format("2006-01-02 15:04:05")
	port := cfg.Server.Port

	redisMode := "disabled (L1 only)"
	if cfg.Redis.Enabled {
		redisMode = "enabled (" + cfg.Redis.AlertHashKey + ")"
	}
	kafkaMode := "disabled"
	if cfg.Kafka.Enabled() {
		kafkaMode = cfg.Kafka.Topic
	}

	fmt.Println("")
	fmt.Println("🚀 " + boldColor + "Inventory Service API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + "http://localhost:" + port + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("⚡ CPU Cores: " + fmt.Sprintf("%d", numCPU))
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Available Endpoints:" + resetColor)
	fmt.Println("   POST " + greenColor + "/api/v1/stock/in" + resetColor + "            - Stock entry")
	fmt.Println("   POST " + greenColor + "/api/v1/stock/out" + resetColor + "           - Stock exit")
	fmt.Println("   POST " + greenColor + "/api/v1/stock/adjustments" + resetColor + "   - Physical count")
	fmt.Println("   POST " + greenColor + "/api/v1/transfers" + resetColor + "           - Branch transfer")
	fmt.Println("   GET  " + greenColor + "/api/v1/dashboard/stats" + resetColor + "     - Dashboard")
	fmt.Println("   GET  " + greenColor + "/health" + resetColor + "                     - Health Check")
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Store: " + cfg.Database.Driver)
	fmt.Println("   🗃️  Alert cache: Redis " + redisMode)
	fmt.Println("   📨 Events: Kafka " + kafkaMode)
	fmt.Println("   🔐 Auth required: " + fmt.Sprintf("%t", cfg.JWT.AuthRequired))
	fmt.Println("   📝 Logging: Structured (Zap)")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✨ " + boldColor + "Server is ready to handle requests!" + resetColor)
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("cpu_cores", numCPU),
		zap.String("store", cfg.Database.Driver),
		zap.String("start_time", startTime),
	)
}
