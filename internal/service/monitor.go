package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

// monitor drives unattended round completion: one cancellable repeating check
// per chat, started with the round and cancelled by whichever path resolves
// it first. A tick firing after resolution is harmless because resolution is
// idempotent; the tick just reports done and the ticker stops.
type monitor struct {
	clock    quartz.Clock
	interval time.Duration
	log      *zap.Logger
	tick     func(ctx context.Context, chatID int64) (done bool)

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
}

func newMonitor(clock quartz.Clock, interval time.Duration, log *zap.Logger, tick func(context.Context, int64) bool) *monitor {
	return &monitor{
		clock:    clock,
		interval: interval,
		log:      log,
		tick:     tick,
		cancels:  make(map[int64]context.CancelFunc),
	}
}

func (m *monitor) Start(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cancels[chatID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[chatID] = cancel

	waiter := m.clock.TickerFunc(ctx, m.interval, func() error {
		if m.tick(ctx, chatID) {
			m.Stop(chatID)
		}
		return nil
	}, "monitor", strconv.FormatInt(chatID, 10))

	go func() {
		if err := waiter.Wait(); err != nil && ctx.Err() == nil {
			m.log.Error("completion monitor stopped unexpectedly",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
	}()
}

// Stop cancels the chat's ticker. Safe to call whether or not one is running;
// a cancelled ticker never fires again.
func (m *monitor) Stop(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[chatID]; ok {
		cancel()
		delete(m.cancels, chatID)
	}
}

func (m *monitor) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for chatID, cancel := range m.cancels {
		cancel()
		delete(m.cancels, chatID)
	}
}

func (m *monitor) running(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cancels[chatID]
	return ok
}
