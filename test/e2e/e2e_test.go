// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cobuilder/internal/common/llm"
	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/slack"
	"cobuilder/internal/dispatch"
	"cobuilder/internal/framework"
	"cobuilder/internal/interaction"
	"cobuilder/internal/models"

	cm "cobuilder/internal/workers/ingestion/classify-message"
	ctr "cobuilder/internal/workers/ingestion/create-task-record"
	im "cobuilder/internal/workers/ingestion/ingest-message"
	nc "cobuilder/internal/workers/ingestion/notify-channel"
	pte "cobuilder/internal/workers/ingestion/publish-task-event"
	rv "cobuilder/internal/workers/ingestion/resolve-venture"
)

// ==========================
// Test Environment
// ==========================

const (
	signingSecret = "e2e-signing-secret"
	callbackID    = "create_cobuilder_task"
)

type slackPost struct {
	Channel  string
	Text     string
	ThreadTS string
}

type environment struct {
	server *httptest.Server
	pool   *dispatch.Pool
	mock   sqlmock.Sqlmock

	mu    sync.Mutex
	posts []slackPost
}

func (e *environment) recordedPosts() []slackPost {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]slackPost(nil), e.posts...)
}

func newSlackServer(t *testing.T, env *environment) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat.postMessage":
			_ = r.ParseForm()
			env.mu.Lock()
			env.posts = append(env.posts, slackPost{
				Channel:  r.PostForm.Get("channel"),
				Text:     r.PostForm.Get("text"),
				ThreadTS: r.PostForm.Get("thread_ts"),
			})
			env.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000001.000100"}`))
		case "/users.info":
			_, _ = w.Write([]byte(`{"ok":true,"user":{"id":"U2","name":"grace","profile":{"display_name":"Grace H."}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":false,"error":"unknown_method"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newCompletionServer(t *testing.T, content string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupEnvironment wires the server the way cmd/ingest-server does, with
// Postgres replaced by sqlmock and every remote API by a local fake.
func setupEnvironment(t *testing.T, completion string) *environment {
	t.Helper()
	log := logger.NewTestLogger(t)
	env := &environment{}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	env.mock = mock

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	slackSrv := newSlackServer(t, env)
	completionSrv := newCompletionServer(t, completion)

	completer, err := llm.NewClient(llm.Config{
		BaseURL: completionSrv.URL,
		APIKey:  "sk-e2e",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	slackClient := slack.NewClient("xoxb-e2e", slack.WithAPIURL(slackSrv.URL))

	fw, err := framework.Load()
	require.NoError(t, err)

	pipeline := im.NewHandler(&im.Config{
		DedupTTL:        time.Hour,
		NotifyTimeout:   5 * time.Second,
		CompleteTimeout: 5 * time.Second,
	}, im.Dependencies{
		Classifier: cm.NewHandler(cm.LoadConfig(nil), completer, fw, framework.BuildReference(fw), log),
		Tasks:      ctr.NewHandler(ctr.LoadConfig(), db, log),
		Notifier: nc.NewHandler(&nc.Config{
			Timeout:      5 * time.Second,
			BaseURL:      "https://cobuilder.example.com",
			AdminLinkURL: "https://cobuilder.example.com/admin/slack",
		}, slackClient, nil, fw, log),
		Events: pte.NewHandler(pte.LoadConfig(nil), nil, nil, fw, log),
		Users:  slackClient,
		Redis:  rdb,
	}, log)

	env.pool = dispatch.NewPool(dispatch.PoolConfig{
		Workers:        2,
		QueueSize:      10,
		JobTimeout:     10 * time.Second,
		EnqueueTimeout: time.Second,
	}, func(ctx context.Context, job models.IngestJob) error {
		_, err := pipeline.Execute(ctx, job)
		return err
	}, log)

	resolver := rv.NewHandler(rv.LoadConfig(nil), db, rdb, log)
	webhook := interaction.NewHandler(&interaction.Config{CallbackID: callbackID}, signingSecret, resolver, env.pool, log)

	mux := http.NewServeMux()
	mux.Handle("/api/slack/interactions", webhook)
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)
	return env
}

func postInteraction(t *testing.T, env *environment, payload interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body := url.Values{"payload": {string(raw)}}.Encode()

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/slack/interactions", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(interaction.HeaderTimestamp, ts)
	req.Header.Set(interaction.HeaderSignature, interaction.NewVerifier(signingSecret).Sign(ts, []byte(body)))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func messageAction(channelID string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "message_action",
		"callback_id": callbackID,
		"user":        map[string]string{"id": "U1", "name": "ada"},
		"channel":     map[string]string{"id": channelID, "name": "venture-acme"},
		"message": map[string]string{
			"text": "We need to rehearse the pitch before demo day",
			"ts":   "1700000000.000100",
			"user": "U2",
		},
	}
}

func drain(t *testing.T, env *environment) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, env.pool.Shutdown(ctx))
}

// ==========================
// Scenarios
// ==========================

func TestE2E_MessageActionCreatesTask(t *testing.T) {
	env := setupEnvironment(t, "```json\n"+`{"assetNumber": 99, "checklistItemId": null, "title": "Rehearse the pitch", "priority": "urgent", "confidence": 150, "reasoning": "demo day prep"}`+"\n```")

	env.mock.ExpectQuery(`FROM slack_channel_mappings`).WithArgs("C123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slack_channel_id", "slack_channel_name", "venture_id", "created_at"}).
			AddRow("map-1", "C123", "venture-acme", "venture-1", time.Now()))
	env.mock.ExpectQuery(`(?s)INSERT INTO tasks.*ON CONFLICT`).
		WithArgs(sqlmock.AnyArg(), "venture-1", 27, nil, "Rehearse the pitch", "urgent", "open",
			"C123", "1700000000.000100", "U2", "Grace H.", 100, "demo day prep").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("task-e2e", time.Now()))

	start := time.Now()
	resp := postInteraction(t, env, messageAction("C123"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), 3*time.Second)

	drain(t, env)

	posts := env.recordedPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "C123", posts[0].Channel)
	assert.Equal(t, "1700000000.000100", posts[0].ThreadTS)
	assert.Contains(t, posts[0].Text, "Rehearse the pitch")
	assert.Contains(t, posts[0].Text, "Asset 27")
	assert.Contains(t, posts[0].Text, ":large_green_circle: 100%")
	assert.Contains(t, posts[0].Text, "https://cobuilder.example.com/ventures/venture-1?asset=27")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestE2E_UnlinkedChannel(t *testing.T) {
	env := setupEnvironment(t, `{"assetNumber": 1}`)

	env.mock.ExpectQuery(`FROM slack_channel_mappings`).WithArgs("C999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slack_channel_id", "slack_channel_name", "venture_id", "created_at"}))

	resp := postInteraction(t, env, messageAction("C999"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	drain(t, env)

	posts := env.recordedPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "C999", posts[0].Channel)
	assert.Contains(t, posts[0].Text, "isn't linked to a Co-Builder venture yet")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestE2E_URLVerification(t *testing.T) {
	env := setupEnvironment(t, "")

	resp := postInteraction(t, env, map[string]string{"type": "url_verification", "challenge": "abc123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "abc123", body["challenge"])
}
