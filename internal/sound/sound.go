//go:build !ci

// Package sound 客户端音效，按事件名播放 assets 目录下的 mp3/wav
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const sampleRate = beep.SampleRate(44100)

// Player 加载并播放音效；未初始化或缺少文件时静默
type Player struct {
	mu      sync.RWMutex
	dir     string
	buffers map[Event]*beep.Buffer
	enabled bool
}

// NewPlayer dir 为音效目录，文件名（不含扩展名）即事件名
func NewPlayer(dir string) *Player {
	return &Player{
		dir:     dir,
		buffers: make(map[Event]*beep.Buffer),
	}
}

// Init 初始化声卡并加载音效
func (p *Player) Init() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("初始化声卡失败: %w", err)
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			p.setEnabled(true)
			return nil
		}
		return fmt.Errorf("读取音效目录失败: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".mp3" && ext != ".wav" {
			continue
		}
		event := Event(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		buf, err := load(filepath.Join(p.dir, e.Name()), ext)
		if err != nil {
			continue
		}
		p.mu.Lock()
		p.buffers[event] = buf
		p.mu.Unlock()
	}
	p.setEnabled(true)
	return nil
}

func load(path, ext string) (*beep.Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = streamer.Close() }()

	var s beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 4})
	buf.Append(s)
	return buf, nil
}

func (p *Player) setEnabled(v bool) {
	p.mu.Lock()
	p.enabled = v
	p.mu.Unlock()
}

// Play 播放事件对应的音效
func (p *Player) Play(event Event) {
	p.mu.RLock()
	buf, ok := p.buffers[event]
	enabled := p.enabled
	p.mu.RUnlock()
	if !enabled || !ok {
		return
	}
	speaker.Play(buf.Streamer(0, buf.Len()))
}

func (p *Player) Close() {
	p.setEnabled(false)
}
