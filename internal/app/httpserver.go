package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/metrics"
)

// Health: то, что отдаёт /healthz.
type Health struct {
	State   func() string
	Records func() int
	// Stopped != nil: процесс в остановке, отвечаем 503.
	Stopped <-chan struct{}
}

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

func Handler(h Health) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if h.State != nil {
			body["scheduler"] = h.State()
		}
		if h.Records != nil {
			body["records"] = h.Records()
		}
		code := http.StatusOK
		if h.Stopped != nil {
			select {
			case <-h.Stopped:
				body["status"] = "stopped"
				code = http.StatusServiceUnavailable
			default:
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})

	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// StartHTTP поднимает сервер в фоне и гасит его при отмене ctx.
func StartHTTP(ctx context.Context, addr string, h Health, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{Addr: addr, Handler: Handler(h), ReadHeaderTimeout: 5 * time.Second}
	s := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP сервер упал", zap.String("addr", addr), zap.Error(err))
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Info("HTTP сервер запущен", zap.String("addr", addr))
	return s
}

// Wait ждёт окончания Shutdown после отмены контекста.
func (s *HTTPServer) Wait() { <-s.done }
