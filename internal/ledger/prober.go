package ledger

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"
)

// Status is the last observed health of the ledger relayer.
type Status struct {
	IsHealthy    bool      `json:"is_healthy"`
	LastCheck    time.Time `json:"last_check"`
	LastSuccess  time.Time `json:"last_success"`
	LastFailure  time.Time `json:"last_failure"`
	FailureCount int       `json:"failure_count"`
}

// Prober periodically checks the relayer health endpoint. Batch
// submission does not depend on it; the status only feeds /health and
// the admin status endpoint.
type Prober struct {
	mu          sync.RWMutex
	baseURL     string
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	client      *http.Client
	status      Status
	stopChan    chan struct{}
	running     bool
}

type ProberConfig struct {
	Interval    time.Duration // Default: 30 seconds
	Timeout     time.Duration // Default: 5 seconds
	MaxFailures int           // Default: 3
}

func NewProber(baseURL string, cfg ProberConfig) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}

	return &Prober{
		baseURL:     baseURL,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		maxFailures: cfg.MaxFailures,
		client:      &http.Client{Timeout: cfg.Timeout},
		stopChan:    make(chan struct{}),
	}
}

func (p *Prober) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
}

func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
}

func (p *Prober) loop() {
	// Probe immediately so /health is meaningful right after boot
	p.probe()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.probe()
		case <-p.stopChan:
			return
		}
	}
}

func (p *Prober) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		p.record(false)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.record(false)
		return
	}
	resp.Body.Close()

	p.record(resp.StatusCode < 300)
}

func (p *Prober) record(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	p.status.LastCheck = now

	if ok {
		if !p.status.IsHealthy && p.status.FailureCount >= p.maxFailures {
			log.Printf("ledger relayer recovered after %d failures", p.status.FailureCount)
		}
		p.status.IsHealthy = true
		p.status.LastSuccess = now
		p.status.FailureCount = 0
		return
	}

	p.status.FailureCount++
	p.status.LastFailure = now
	if p.status.FailureCount >= p.maxFailures {
		if p.status.IsHealthy {
			log.Printf("ledger relayer marked unhealthy after %d consecutive failures", p.status.FailureCount)
		}
		p.status.IsHealthy = false
	}
}

func (p *Prober) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
