package tree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cabin-network-backend/config"
)

// Remote is a Tree backed by a realtime-database style REST API, where the
// node at "a/b" lives at "<base>/a/b.json". Subscriptions are served by
// polling and fire only when the value changes.
type Remote struct {
	cfg    config.RemoteConfig
	client *http.Client
	log    *zap.Logger

	mu   sync.Mutex
	wg   sync.WaitGroup
	subs map[*remoteSub]struct{}
}

type remoteSub struct {
	cancel context.CancelFunc
}

// NewRemote creates a REST-backed tree client.
func NewRemote(cfg config.RemoteConfig, log *zap.Logger) *Remote {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn("invalid proxy url, remote tree will not use a proxy", zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Remote{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		log:  log,
		subs: make(map[*remoteSub]struct{}),
	}
}

// Subscribe implements Tree. The first successful poll delivers the initial
// value; failed polls are logged and retried on the next tick.
func (r *Remote) Subscribe(path string, fn func(any)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &remoteSub{cancel: cancel}

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.poll(ctx, path, fn)
	}()

	return func() {
		cancel()
		r.mu.Lock()
		delete(r.subs, sub)
		r.mu.Unlock()
	}, nil
}

func (r *Remote) poll(ctx context.Context, path string, fn func(any)) {
	var last any
	delivered := false

	tick := func() {
		v, err := r.Get(ctx, path)
		if errors.Is(err, ErrNotFound) {
			v, err = nil, nil
		}
		if err != nil {
			if ctx.Err() == nil {
				r.log.Warn("remote tree poll failed", zap.String("path", path), zap.Error(err))
			}
			return
		}
		if delivered && reflect.DeepEqual(last, v) {
			return
		}
		last, delivered = v, true
		fn(v)
	}

	tick()
	timer := time.NewTimer(r.cfg.PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			tick()
			timer.Reset(r.cfg.PollInterval)
		}
	}
}

// Close stops every subscription and waits for the pollers to exit.
func (r *Remote) Close() {
	r.mu.Lock()
	for sub := range r.subs {
		sub.cancel()
	}
	r.subs = make(map[*remoteSub]struct{})
	r.mu.Unlock()
	r.wg.Wait()
}

// Get implements Tree.
func (r *Remote) Get(ctx context.Context, path string) (any, error) {
	var out any
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// Push implements Tree.
func (r *Remote) Push(ctx context.Context, path string, value any) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := r.do(ctx, http.MethodPost, path, value, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", fmt.Errorf("push to %q returned no key", path)
	}
	return out.Name, nil
}

// Set implements Tree.
func (r *Remote) Set(ctx context.Context, path string, value any) error {
	return r.do(ctx, http.MethodPut, path, value, nil)
}

// Update implements Tree.
func (r *Remote) Update(ctx context.Context, path string, fields map[string]any) error {
	return r.do(ctx, http.MethodPatch, path, fields, nil)
}

// Remove implements Tree.
func (r *Remote) Remove(ctx context.Context, path string) error {
	return r.do(ctx, http.MethodDelete, path, nil, nil)
}

func (r *Remote) endpoint(path string) string {
	base := strings.TrimRight(r.cfg.BaseURL, "/")
	segs := Split(path)
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	u := base + "/" + strings.Join(segs, "/") + ".json"
	if r.cfg.AuthToken != "" {
		u += "?auth=" + url.QueryEscape(r.cfg.AuthToken)
	}
	return u
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil || method == http.MethodPut {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: received non-200 status code: %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
