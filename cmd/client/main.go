package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/uno-arena/internal/logger"
	"github.com/palemoky/uno-arena/internal/sound"
	"github.com/palemoky/uno-arena/internal/ui"
)

const appDir = ".uno-arena"

func main() {
	serverAddr := flag.String("server", "localhost:1780", "服务器地址")
	token := flag.String("token", "", "重连令牌，为空时读取上次保存的令牌")
	soundDir := flag.String("sounds", "assets/sounds", "音效目录")
	mute := flag.Bool("mute", false, "关闭音效")
	flag.Parse()

	if err := logger.InitFile(appDir); err != nil {
		log.Printf("⚠️ 日志初始化失败: %v", err)
	}
	defer logger.Close()

	tokenPath := tokenFile()
	if *token == "" {
		*token = loadToken(tokenPath)
	}

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)
	model := ui.NewOnlineModel(serverURL, *token)

	if !*mute {
		player := sound.NewPlayer(*soundDir)
		if err := player.Init(); err != nil {
			logger.L().Warnf("🔇 音效不可用: %v", err)
		} else {
			model.SetSound(player)
			defer player.Close()
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.LogError("客户端异常退出: %v", err)
		log.Fatalf("启动客户端时出错: %v（日志: %s）", err, logger.GetLogPath())
	}

	if t := model.Token(); t != "" {
		if err := saveToken(tokenPath, t); err != nil {
			logger.L().Warnf("⚠️ 保存重连令牌失败: %v", err)
		}
	}
}

// tokenFile 令牌保存在 ~/.uno-arena/token
func tokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, appDir, "token")
}

func loadToken(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(path, token string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
