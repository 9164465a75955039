// Package runtime assembles the daemon: telemetry, settings, bus, history,
// the playback engine, and the request front-ends.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voxlabs/vox-core/internal/bus"
	"github.com/voxlabs/vox-core/internal/config"
	"github.com/voxlabs/vox-core/internal/engine"
	"github.com/voxlabs/vox-core/internal/history"
	"github.com/voxlabs/vox-core/internal/inbox"
	"github.com/voxlabs/vox-core/internal/natsserver"
	"github.com/voxlabs/vox-core/internal/player"
	"github.com/voxlabs/vox-core/internal/protocol"
	"github.com/voxlabs/vox-core/internal/settings"
	"github.com/voxlabs/vox-core/internal/synth"
)

type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup

	lastSessionID atomic.Value
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	if err := os.MkdirAll(r.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st, err := settings.Open(r.cfg.DataDir, r.logger)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	var busClient *bus.Client
	if r.cfg.Bus.Enabled {
		busClient, err = bus.Connect(ctx, r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer busClient.Close()
	}

	hist, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	synthesizer := r.buildSynth()
	audioPlayer := r.buildPlayer()

	eng := engine.New(synthesizer, audioPlayer, st, r.cfg.DataDir, r.logger)
	defer eng.Stop()

	eng.Subscribe(func(u protocol.SessionUpdate) {
		r.recordUpdate(ctx, hist, u)
		if busClient != nil && busClient.Healthy() {
			payload, err := json.Marshal(u)
			if err != nil {
				return
			}
			if err := busClient.Conn().Publish(protocol.SubjectSessionUpdate, payload); err != nil {
				r.logger.Warn("session update publish failed", slog.String("error", err.Error()))
			}
		}
	})

	watcher := inbox.New(r.cfg.RequestFile, eng, r.logger)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start inbox watcher: %w", err)
	}
	defer watcher.Close()

	var subs []*nats.Subscription
	if busClient != nil {
		subs, err = r.subscribeRequests(busClient, eng)
		if err != nil {
			return fmt.Errorf("subscribe request subjects: %w", err)
		}
		defer func() {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.HandleFunc("/voices", func(w http.ResponseWriter, _ *http.Request) {
		resp := struct {
			Voices  []synth.Voice `json:"voices"`
			Current int           `json:"current"`
			Speed   float64       `json:"speed"`
		}{
			Voices:  synth.Voices(),
			Current: st.Voice(),
			Speed:   st.Speed(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eng.Snapshot())
	})
	mux.HandleFunc("/settings", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPut && req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Voice *int     `json:"voice"`
			Speed *float64 `json:"speed"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid settings payload", http.StatusBadRequest)
			return
		}
		if body.Voice != nil {
			if synth.VoiceName(*body.Voice) == "" {
				http.Error(w, "unknown voice id", http.StatusBadRequest)
				return
			}
			if err := st.SetVoice(*body.Voice); err != nil {
				http.Error(w, "failed to persist voice", http.StatusInternalServerError)
				return
			}
		}
		if body.Speed != nil {
			if *body.Speed <= 0 {
				http.Error(w, "speed must be positive", http.StatusBadRequest)
				return
			}
			if err := st.SetSpeed(*body.Speed); err != nil {
				http.Error(w, "failed to persist speed", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, req *http.Request) {
		sessionID := req.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		events, err := hist.ListSessionEvents(req.Context(), sessionID, limit)
		if err != nil {
			r.logger.Error("history query failed", slog.String("error", err.Error()))
			http.Error(w, "history query failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	})
	if metricHandler != nil {
		mux.Handle("/metrics", metricHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("request_file", r.cfg.RequestFile),
		slog.String("synth_mode", r.cfg.Synth.Mode),
		slog.String("player_mode", r.cfg.Player.Mode))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildSynth() synth.Synthesizer {
	if r.cfg.Synth.Mode == "mock" {
		return synth.NewMockSynth(r.logger)
	}
	return synth.NewExecSynth(r.cfg.Synth, r.logger)
}

func (r *Runtime) buildPlayer() player.Player {
	if r.cfg.Player.Mode == "mock" {
		return player.NewMockPlayer()
	}
	return player.NewExecPlayer(r.cfg.Player.BinaryPath, r.logger)
}

// recordUpdate persists the update timeline, inserting a session row the
// first time a new session id appears.
func (r *Runtime) recordUpdate(ctx context.Context, hist *history.Store, u protocol.SessionUpdate) {
	if u.SessionID != "" {
		last, _ := r.lastSessionID.Load().(string)
		if u.SessionID != last {
			r.lastSessionID.Store(u.SessionID)
			if err := hist.AppendSession(ctx, u.SessionID, u.WordCount, u.TotalSentences); err != nil {
				r.logger.Warn("history session insert failed", slog.String("error", err.Error()))
				return
			}
		}
		payload, err := json.Marshal(u)
		if err != nil {
			return
		}
		evt := history.Event{SessionID: u.SessionID, Type: u.State, Payload: payload}
		if err := hist.AppendEvent(ctx, evt); err != nil {
			r.logger.Warn("history event insert failed", slog.String("error", err.Error()))
		}
	}
}

func (r *Runtime) subscribeRequests(client *bus.Client, eng *engine.Engine) ([]*nats.Subscription, error) {
	conn := client.Conn()
	var subs []*nats.Subscription

	speakSub, err := conn.Subscribe(protocol.SubjectSpeakRequest, func(msg *nats.Msg) {
		var req protocol.SpeakRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			r.logger.Warn("malformed speak request", slog.String("error", err.Error()))
			return
		}
		eng.Speak(req.Text)
	})
	if err != nil {
		return nil, err
	}
	subs = append(subs, speakSub)

	stopSub, err := conn.Subscribe(protocol.SubjectStopRequest, func(*nats.Msg) {
		eng.Stop()
	})
	if err != nil {
		return subs, err
	}
	subs = append(subs, stopSub)

	toggleSub, err := conn.Subscribe(protocol.SubjectToggleRequest, func(*nats.Msg) {
		eng.Toggle()
	})
	if err != nil {
		return subs, err
	}
	subs = append(subs, toggleSub)

	return subs, nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
