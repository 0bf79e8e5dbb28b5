package filesystem

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
)

// JSONPostEventLog añade cada evento recibido como una línea JSON en un fichero.
type JSONPostEventLog struct {
	filePath string
	mu       sync.Mutex
}

// LoggedPostEvent es una línea del fichero.
type LoggedPostEvent struct {
	sharedEvents.PostEvent
	ReceivedAt time.Time `json:"receivedAt"`
}

var _ postDomain.PostEventSink = (*JSONPostEventLog)(nil)

func NewJSONPostEventLog(filePath string) *JSONPostEventLog {
	return &JSONPostEventLog{filePath: filePath}
}

func (s *JSONPostEventLog) Record(ctx context.Context, evt sharedEvents.PostEvent, receivedAt time.Time) error {
	line, err := json.Marshal(LoggedPostEvent{PostEvent: evt, ReceivedAt: receivedAt})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GetAll lee el fichero completo. Si no existe devuelve una lista vacía.
func (s *JSONPostEventLog) GetAll(ctx context.Context) ([]LoggedPostEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LoggedPostEvent{}, nil
		}
		return nil, err
	}
	defer f.Close()

	entries := []LoggedPostEvent{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e LoggedPostEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// CountByAction recorre el fichero; pensado para el resumen de arranque, no para consultas frecuentes.
func (s *JSONPostEventLog) CountByAction(ctx context.Context, action sharedEvents.PostAction) (uint64, error) {
	entries, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n, nil
}
