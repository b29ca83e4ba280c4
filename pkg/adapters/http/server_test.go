package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/pkg/adapters/memory"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketFlow() *domain.Definition {
	return &domain.Definition{
		ID:   "ticket",
		Name: "Support Ticket",
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.NodeKindStart, Label: "New"},
			{ID: "triage", Kind: domain.NodeKindStatus, Label: "Triage"},
			{ID: "closed", Kind: domain.NodeKindEnd, Label: "Closed"},
		},
		Edges: []domain.Edge{
			{ID: "accept", Source: "start", Target: "triage", Label: "Accept", Notifications: domain.EdgeNotifications{
				OnTrigger: &domain.NotificationSpec{Enabled: true, Channels: []domain.Channel{domain.ChannelInApp}, Template: "{objectName} accepted"},
			}},
			{ID: "resolve", Source: "triage", Target: "closed", Label: "Resolve",
				RequiredRoles:  []string{"agent"},
				RequiredFields: []domain.FieldRequirement{{Name: "Resolution"}},
			},
		},
	}
}

type fixture struct {
	handler http.Handler
	streams *StreamManager
	loader  *memory.Loader
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	loader, err := memory.NewLoader(ticketFlow())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	streams := NewStreamManager(nil)
	eng, err := sopflow.New("",
		sopflow.WithLoader(loader),
		sopflow.WithLifecycleHooks(metrics.Hooks()),
		sopflow.OnChange(streams.Publish),
	)
	require.NoError(t, err)

	handler, err := NewHandler(eng, WithStreams(streams), WithMetrics(reg))
	require.NoError(t, err)
	return fixture{handler: handler, streams: streams, loader: loader}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotNil(t, doc.Paths.Find("/cases/{id}/transitions"))
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(t, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "sopflow-http", info["app"])
	assert.Equal(t, strings.TrimSpace(sopflow.Version), info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = f.do(t, "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestDefinitions(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/definitions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ticket"}, decodeBody[[]string](t, w))

	w = f.do(t, "GET", "/definitions/ticket", nil)
	require.Equal(t, http.StatusOK, w.Code)
	def := decodeBody[domain.Definition](t, w)
	assert.Len(t, def.Nodes, 3)

	w = f.do(t, "GET", "/definitions/ticket/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decodeBody[sopflow.Report](t, w)
	assert.True(t, report.Valid)

	w = f.do(t, "GET", "/definitions/ticket/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `start -- "Accept" --> triage`)

	w = f.do(t, "GET", "/definitions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, w).Code)
}

func TestCaseLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/cases", OpenCaseRequest{DefinitionID: "ticket", Name: "Printer jam"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	obj := decodeBody[domain.Object](t, w)
	assert.Equal(t, "start", obj.CurrentNodeID)
	assert.Equal(t, "/cases/"+obj.ID, w.Header().Get("Location"))

	w = f.do(t, "GET", "/cases", nil)
	assert.Equal(t, []string{obj.ID}, decodeBody[[]string](t, w))

	w = f.do(t, "POST", "/cases/"+obj.ID+"/transitions", map[string]any{"edgeId": "accept", "actor": "ana"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var moved struct {
		Object        domain.Object              `json:"object"`
		Notifications []domain.NotificationEvent `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, "triage", moved.Object.CurrentNodeID)
	assert.Len(t, moved.Notifications, 1)

	w = f.do(t, "GET", "/cases/"+obj.ID+"/actions?role=guest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]domain.Edge](t, w))

	w = f.do(t, "POST", "/cases/"+obj.ID+"/transitions", map[string]any{"edgeId": "resolve", "role": "agent"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, "missing_fields", errBody.Code)
	assert.Equal(t, []string{"Resolution"}, errBody.Missing)
	assert.Equal(t, "Missing required fields: Resolution", errBody.Error)

	w = f.do(t, "POST", "/cases/"+obj.ID+"/transitions", map[string]any{
		"edgeId":      "resolve",
		"role":        "agent",
		"actor":       "bo",
		"fieldValues": map[string]any{"Resolution": "new toner"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, "GET", "/cases/"+obj.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"steps":2,"total":2,"percentage":100,"endReachable":true}`, w.Body.String())

	w = f.do(t, "GET", "/cases/"+obj.ID+"/audit.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Resolution=new toner", records[2][7])

	w = f.do(t, "GET", "/definitions/ticket/graph?case_id="+obj.ID, nil)
	assert.Contains(t, w.Body.String(), "class closed current;")

	w = f.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sopflow_transitions_rejected_total{definition_id="ticket",reason="missing_fields"} 1`)

	w = f.do(t, "DELETE", "/cases/"+obj.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, "GET", "/cases/"+obj.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, "GET", "/cases/"+obj.ID+"/audit.csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"Open Without Definition", "/cases", map[string]any{"name": "x"}},
		{"Transition Without Edge", "/cases/abc/transitions", map[string]any{"actor": "ana"}},
		{"Preview With Unknown Channel", "/notifications/preview", map[string]any{"spec": map[string]any{"channels": []string{"fax"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "POST", tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "bad_request", decodeBody[ErrorResponse](t, w).Code)
		})
	}
}

func TestOpenCase_UnknownDefinition(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/cases", OpenCaseRequest{DefinitionID: "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenCase_NoStartNode(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.loader.Put(&domain.Definition{ID: "headless", Nodes: []domain.Node{{ID: "e", Kind: domain.NodeKindEnd}}}))

	w := f.do(t, "POST", "/cases", OpenCaseRequest{DefinitionID: "headless"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SOP has no Start node", decodeBody[ErrorResponse](t, w).Error)
}

func TestPreviewNotification(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/notifications/preview", PreviewRequest{
		Spec: domain.NotificationSpec{
			Enabled:   true,
			Channels:  []domain.Channel{domain.ChannelEmail, domain.ChannelSMS},
			Recipient: domain.RecipientAdmin,
			Template:  "{objectName}: {fromStatus} -> {toStatus}",
		},
		Vars: map[string]string{"objectName": "PO-1", "toStatus": "Paid"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var previews []struct {
		Channel   string `json:"channel"`
		Recipient string `json:"recipient"`
		Body      string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &previews))
	require.Len(t, previews, 2)
	assert.Equal(t, "SMS", previews[1].Channel)
	assert.Equal(t, "Administrator", previews[0].Recipient)
	assert.Equal(t, "PO-1: N/A -> Paid", previews[0].Body)
}

func TestSubscribeEvents_NoWatcher(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type chanWatcher chan struct{}

func (c chanWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	return c, nil
}

func TestSubscribeEvents_Reload(t *testing.T) {
	loader, err := memory.NewLoader(ticketFlow())
	require.NoError(t, err)
	eng, err := sopflow.New("", sopflow.WithLoader(loader))
	require.NoError(t, err)

	events := make(chanWatcher, 1)
	events <- struct{}{}
	close(events)

	handler, err := NewHandler(eng, WithWatcher(events))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: ping")
	assert.Contains(t, w.Body.String(), "event: reload\ndata: definitions")
}

func TestSubscribeEvents_Case(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	w := f.do(t, "POST", "/cases", OpenCaseRequest{DefinitionID: "ticket", Name: "Stream me"})
	require.Equal(t, http.StatusCreated, w.Code)
	obj := decodeBody[domain.Object](t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?case_id="+obj.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool { return f.streams.Subscribers(obj.ID) == 1 }, time.Second, 10*time.Millisecond)

	w = f.do(t, "POST", "/cases/"+obj.ID+"/transitions", map[string]any{"edgeId": "accept"})
	require.Equal(t, http.StatusOK, w.Code)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var diff domain.ObjectDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, obj.ID, diff.ObjectID)
	require.NotNil(t, diff.CurrentNodeID)
	assert.Equal(t, "triage", *diff.CurrentNodeID)
	assert.Len(t, diff.AuditAppended, 1)
}

func TestStreamManager_Publish(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("c1")

	sm.Publish(context.Background(), nil, &domain.Object{ID: "c1", CurrentNodeID: "a"})
	sm.Publish(context.Background(), &domain.Object{ID: "c1", CurrentNodeID: "a"}, &domain.Object{ID: "c1", CurrentNodeID: "a"})
	sm.Publish(context.Background(), &domain.Object{ID: "c1"}, nil)

	assert.JSONEq(t, `{"object_id":"c1","current_node_id":"a"}`, <-ch)
	assert.JSONEq(t, `{"object_id":"c1","deleted":true}`, <-ch)
	assert.Len(t, ch, 0, "unchanged objects are not broadcast")

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("c1"))
}
