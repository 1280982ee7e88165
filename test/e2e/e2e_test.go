// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vahan-chatbot/internal/api"
	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/executor"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/querybuilder"
	"vahan-chatbot/internal/chatbot/session"
	"vahan-chatbot/internal/common/camunda"
	"vahan-chatbot/internal/common/config"
	"vahan-chatbot/internal/common/database"
	"vahan-chatbot/internal/common/logger"
	avq "vahan-chatbot/internal/workers/chatbot/answer-vehicle-query"
)

// Runs against the docker-compose stack: postgres, redis and zeebe on localhost.
func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") == "" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type stack struct {
	cfg *config.Config
	pg  *database.PostgresClient
	rdb *database.RedisClient
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Camunda.BrokerAddress = "localhost:26500"

	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { rdb.Close() })

	createSchema(t, pg)
	return &stack{cfg: cfg, pg: pg, rdb: rdb}
}

func createSchema(t *testing.T, pg *database.PostgresClient) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("e2e-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS states (id SERIAL PRIMARY KEY, state_name TEXT UNIQUE NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS districts (id SERIAL PRIMARY KEY, district_name TEXT NOT NULL, state_id INT REFERENCES states(id))`,
		`CREATE TABLE IF NOT EXISTS vehicle_registrations (
			id SERIAL PRIMARY KEY,
			state_id INT REFERENCES states(id),
			district_id INT REFERENCES districts(id),
			vehicle_type TEXT,
			registration_date DATE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			state TEXT, district TEXT, rto_office TEXT,
			failed_attempts INT DEFAULT 0,
			is_locked BOOLEAN DEFAULT FALSE,
			lock_until TIMESTAMP,
			last_login TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chatbot_logs (
			id SERIAL PRIMARY KEY,
			user_id INT,
			query_text TEXT,
			executed_sql TEXT,
			response_text TEXT,
			success BOOLEAN,
			response_time_ms INT,
			timestamp TIMESTAMP DEFAULT NOW()
		)`,
		`TRUNCATE vehicle_registrations, districts, states, users, chatbot_logs RESTART IDENTITY CASCADE`,
		`INSERT INTO states (state_name) VALUES ('Uttar Pradesh'), ('Maharashtra')`,
		`INSERT INTO districts (district_name, state_id) VALUES ('Lucknow', 1), ('Pune', 2)`,
		`INSERT INTO vehicle_registrations (state_id, district_id, vehicle_type, registration_date) VALUES
			(1, 1, 'car', '2023-03-02'), (1, 1, 'car', '2023-03-15'), (1, 1, 'bike', '2023-03-20'),
			(2, 2, 'car', '2023-03-05')`,
	}
	for _, stmt := range statements {
		_, err := pg.DB.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	_, err = pg.DB.Exec(
		`INSERT INTO users (username, password_hash, role, state, district, rto_office) VALUES
			('e2e_admin', $1, 'admin', NULL, NULL, NULL),
			('e2e_clerk', $1, 'district_officer', 'Maharashtra', 'Pune', 'MH12')`,
		string(hash))
	require.NoError(t, err)
}

func TestZeebeConnectivity(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Camunda.BrokerAddress = "localhost:26500"

	client, err := camunda.Connect(context.Background(), cfg.Camunda, nil, logger.NewTestLogger(t))
	require.NoError(t, err, "Zeebe connection failed")
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestChatAPI_FullFlow(t *testing.T) {
	s := setupStack(t)
	log := logger.NewTestLogger(t)

	exec := executor.NewPostgres(s.pg.DB, 5*time.Second, log)
	tokens := session.NewTokenManager("e2e-secret", 15*time.Minute, "vahan-chatbot", s.rdb.Client, log)
	sessions := session.NewService(session.NewUserStore(s.pg.DB), tokens,
		session.Config{MaxLoginAttempts: 5, LockDuration: 5 * time.Minute}, log)

	server := api.NewServer(api.Config{ServiceName: "e2e", RateLimitPerMinute: 100}, api.Deps{
		Sessions: sessions,
		Pipeline: pipeline.New(querybuilder.NewBuilder(), exec, log),
		Audit:    audit.NewRecorder(s.pg.DB, nil, "chatbot-logs", log),
		DB:       s.pg,
		Limiter:  api.NewRedisLimiter(s.rdb.Client, time.Minute, log),
	}, log)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	adminToken := login(t, ts.URL, "e2e_admin")
	clerkToken := login(t, ts.URL, "e2e_clerk")

	code, body := post(t, ts.URL+"/api/chat", adminToken, map[string]string{
		"message": "How many cars registered in Uttar Pradesh in March 2023?",
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["reply"], "Total 2 Cars")

	code, body = post(t, ts.URL+"/api/chat", clerkToken, map[string]string{
		"message": "How many cars registered in Uttar Pradesh in 2023?",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, body["reply"], "Maharashtra")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/chat/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, _ = post(t, ts.URL+"/api/auth/logout", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = post(t, ts.URL+"/api/chat", adminToken, map[string]string{"message": "How many accidents in 2023?"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAnswerVehicleQueryWorker(t *testing.T) {
	s := setupStack(t)
	log := logger.NewTestLogger(t)

	exec := executor.NewPostgres(s.pg.DB, 5*time.Second, log)
	handler := avq.NewHandler(&avq.Config{Timeout: 10 * time.Second},
		pipeline.New(querybuilder.NewBuilder(), exec, log),
		audit.NewRecorder(s.pg.DB, nil, "chatbot-logs", log), nil, log)

	out, err := handler.Execute(context.Background(), &avq.Input{
		Question: "How many cars registered in Pune in 2023?",
		Caller:   avq.CallerInput{Username: "e2e_clerk", Role: "district_officer", State: "Maharashtra", District: "Pune"},
		UserID:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)
	assert.True(t, out.Recognized)
}

func login(t *testing.T, baseURL, username string) string {
	t.Helper()
	code, body := post(t, baseURL+"/api/auth/login", "", map[string]string{
		"username": username,
		"password": "e2e-pass",
	})
	require.Equal(t, http.StatusOK, code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func post(t *testing.T, url, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}
