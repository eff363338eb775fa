package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagefetch/models"
)

// recorder is a bounded append-only event log fed by CDP subscriptions
// scoped to one page. It is torn down with the session.
type recorder struct {
	page        *rod.Page
	maxEntries  int
	includeBody bool
	cancel      context.CancelFunc
	done        chan struct{}

	mu        sync.Mutex
	logs      []models.NetworkLog
	requestID []proto.NetworkRequestID // parallel to logs, set for responses
	truncated bool
}

// startRecorder subscribes to console, request and response events. Network
// events are only safe here because debug sessions never install a hijack
// router.
func startRecorder(page *rod.Page, opts RecordOptions) *recorder {
	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{
		page:        page,
		maxEntries:  opts.MaxEntries,
		includeBody: opts.IncludeBody,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	if r.maxEntries <= 0 {
		r.maxEntries = 1000
	}

	wait := page.Context(ctx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			r.append(models.NetworkLog{
				Type:    models.LogConsole,
				Message: fmt.Sprintf("[%s] %s", e.Type, consoleText(e.Args)),
			}, "")
		},
		func(e *proto.NetworkRequestWillBeSent) {
			entry := models.NetworkLog{
				Type:         models.LogRequest,
				Method:       e.Request.Method,
				URL:          e.Request.URL,
				ResourceType: string(e.Type),
				Headers:      headerStrings(e.Request.Headers),
			}
			if r.includeBody {
				entry.Body = e.Request.PostData
			}
			r.append(entry, "")
		},
		func(e *proto.NetworkResponseReceived) {
			r.append(models.NetworkLog{
				Type:         models.LogResponse,
				Status:       e.Response.Status,
				URL:          e.Response.URL,
				ResourceType: string(e.Type),
				Headers:      headerStrings(e.Response.Headers),
			}, e.RequestID)
		},
	)
	go func() {
		defer close(r.done)
		wait()
	}()
	return r
}

func (r *recorder) append(entry models.NetworkLog, id proto.NetworkRequestID) {
	entry.Timestamp = time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) >= r.maxEntries {
		r.truncated = true
		return
	}
	r.logs = append(r.logs, entry)
	r.requestID = append(r.requestID, id)
}

// snapshot copies the log. Response bodies are fetched here rather than in
// the event callback, because a CDP call from inside EachEvent would block
// the event loop that has to deliver its answer.
func (r *recorder) snapshot(ctx context.Context) ([]models.NetworkLog, bool) {
	r.mu.Lock()
	logs := make([]models.NetworkLog, len(r.logs))
	copy(logs, r.logs)
	ids := make([]proto.NetworkRequestID, len(r.requestID))
	copy(ids, r.requestID)
	truncated := r.truncated
	r.mu.Unlock()

	if r.includeBody {
		p := r.page.Context(ctx)
		for i := range logs {
			if logs[i].Type != models.LogResponse || ids[i] == "" {
				continue
			}
			body, err := proto.NetworkGetResponseBody{RequestID: ids[i]}.Call(p)
			if err != nil || body.Base64Encoded {
				continue
			}
			logs[i].Body = body.Body
		}
	}
	return logs, truncated
}

func (r *recorder) stop() {
	r.cancel()
	<-r.done
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a.Value.Nil() && a.Description != "":
			parts = append(parts, a.Description)
		case a.Value.Nil():
			parts = append(parts, string(a.Type))
		default:
			if s, ok := a.Value.Val().(string); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, a.Value.JSON("", ""))
			}
		}
	}
	return strings.Join(parts, " ")
}

func headerStrings(h proto.NetworkHeaders) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v.Str()
	}
	return out
}
