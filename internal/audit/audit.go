// Package audit records metric record changes.
//
// Events are published on a channel and fanned out to subscribers that
// append them to a file or POST them to an HTTP endpoint.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/wellness/internal/model"
)

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log publishes a change of recordID made by owner from ipAddress.
	Log(action, owner, recordID, ipAddress string)
}

// auditLogger sends events to a channel.
type auditLogger struct {
	eventChan chan<- models.AuditEvent
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewAuditLogger creates a new AuditLogger that sends events to the provided channel.
func NewAuditLogger(eventChan chan<- models.AuditEvent, logger *zap.SugaredLogger) AuditLogger {
	return &auditLogger{
		eventChan: eventChan,
		logger:    logger,
		now:       time.Now,
	}
}

// Log never blocks: when the channel is full the event is dropped.
func (a *auditLogger) Log(action, owner, recordID, ipAddress string) {
	event := models.AuditEvent{
		TS:        a.now().UTC().Format(time.RFC3339),
		Action:    action,
		Owner:     owner,
		RecordID:  recordID,
		IPAddress: ipAddress,
	}

	select {
	case a.eventChan <- event:
	default:
		a.logger.Warnw("audit channel is full, dropping event", "action", action, "record_id", recordID)
	}
}

type ipKey struct{}

// WithClientIP returns a context carrying the address of the requesting client.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

// ChangeHook adapts l to the dashboard change callback.
func ChangeHook(l AuditLogger) func(ctx context.Context, action, owner, id string) {
	return func(ctx context.Context, action, owner, id string) {
		l.Log(action, owner, id, ClientIP(ctx))
	}
}

// Broadcaster distributes audit events to multiple subscriber channels.
//
// A subscriber that is not ready misses the event, so a slow destination
// never stalls the others. All subscriber channels are closed once source is.
func Broadcaster(source <-chan models.AuditEvent, logger *zap.SugaredLogger, subs ...chan<- models.AuditEvent) {
	defer func() {
		for _, subChan := range subs {
			close(subChan)
		}
	}()
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
			default:
				logger.Warnw("dropped audit event for blocked subscriber", "action", evt.Action, "record_id", evt.RecordID)
			}
		}
	}
}

// FileSubscriber appends audit events to path as JSON lines.
func FileSubscriber(events <-chan models.AuditEvent, path string, logger *zap.SugaredLogger) {
	for evt := range events {
		if err := appendEvent(path, evt); err != nil {
			logger.Errorw("failed to write audit event", "file", path, "error", err)
		}
	}
}

func appendEvent(path string, evt models.AuditEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

// URLSubscriber POSTs audit events to url.
func URLSubscriber(events <-chan models.AuditEvent, url string, client *http.Client, logger *zap.SugaredLogger) {
	for evt := range events {
		if err := postEvent(client, url, evt); err != nil {
			logger.Errorw("failed to send audit event", "url", url, "error", err)
		}
	}
}

func postEvent(client *http.Client, url string, evt models.AuditEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
