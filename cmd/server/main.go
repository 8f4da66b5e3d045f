package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/nextchow/internal/app"
	"github.com/nextchow/internal/config"
	"github.com/nextchow/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if config.IsWeakSecret(cfg.UserJWT.SecretKey) {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		if cfg.Paystack.SecretKey == "" {
			stdLog.Fatalf("未配置 paystack.secret_key（可通过 PAYSTACK_SECRET_KEY 注入）")
		}
		gin.SetMode(gin.ReleaseMode)
	} else if config.IsWeakSecret(cfg.UserJWT.SecretKey) {
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║              🍲 NextChow API 启动中                   ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "███╗   ██╗███████╗██╗  ██╗████████╗ ██████╗██╗  ██╗ ██████╗ ██╗    ██╗" + ansiReset)
	fmt.Println(ansiCyan + "████╗  ██║██╔════╝╚██╗██╔╝╚══██╔══╝██╔════╝██║  ██║██╔═══██╗██║    ██║" + ansiReset)
	fmt.Println(ansiCyan + "██╔██╗ ██║█████╗   ╚███╔╝    ██║   ██║     ███████║██║   ██║██║ █╗ ██║" + ansiReset)
	fmt.Println(ansiCyan + "██║╚██╗██║██╔══╝   ██╔██╗    ██║   ██║     ██╔══██║██║   ██║██║███╗██║" + ansiReset)
	fmt.Println(ansiCyan + "██║ ╚████║███████╗██╔╝ ██╗   ██║   ╚██████╗██║  ██║╚██████╔╝╚███╔███╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝ ╚═════╝  ╚══╝╚══╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Cart · Checkout · Payments" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}
