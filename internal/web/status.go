package web

import (
	"sync"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
)

type EngineStatus string

const (
	StatusInitializing EngineStatus = "initializing"
	StatusQuiescent    EngineStatus = "quiescent"
	StatusIdle         EngineStatus = "idle"
	StatusChecking     EngineStatus = "checking"
	StatusError        EngineStatus = "error"
)

type StatusInfo struct {
	Status    EngineStatus     `json:"status"`
	Message   string           `json:"message,omitempty"`
	LastCycle *detector.Result `json:"lastCycle,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type StatusBroadcaster struct {
	status    StatusInfo
	listeners []chan StatusInfo
	mu        sync.RWMutex
}

func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		status: StatusInfo{
			Status:    StatusInitializing,
			Message:   "Starting up...",
			UpdatedAt: time.Now(),
		},
	}
}

func (b *StatusBroadcaster) GetStatus() StatusInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus changes the status and message and keeps the last cycle.
func (b *StatusBroadcaster) SetStatus(status EngineStatus, message string) {
	b.mu.Lock()
	b.status.Status = status
	b.status.Message = message
	b.status.UpdatedAt = time.Now()
	current := b.status
	b.mu.Unlock()

	b.broadcast(current)
}

// SetCycle records a finished detection cycle and returns to idle.
func (b *StatusBroadcaster) SetCycle(result detector.Result) {
	b.mu.Lock()
	status := StatusIdle
	message := "Watching followers"
	if result.Quiescent {
		status = StatusQuiescent
		message = "Waiting for credentials"
	}
	b.status = StatusInfo{
		Status:    status,
		Message:   message,
		LastCycle: &result,
		UpdatedAt: time.Now(),
	}
	current := b.status
	b.mu.Unlock()

	b.broadcast(current)
}

func (b *StatusBroadcaster) Subscribe() chan StatusInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan StatusInfo, 10)
	b.listeners = append(b.listeners, ch)
	ch <- b.status
	return ch
}

func (b *StatusBroadcaster) Unsubscribe(ch chan StatusInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *StatusBroadcaster) broadcast(status StatusInfo) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.listeners {
		select {
		case ch <- status:
		default:
		}
	}
}
