package ginserver_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrent/internal/app/commands"
	availabilityapp "instrent/internal/app/handlers/availability"
	itemsapp "instrent/internal/app/handlers/items"
	rentalapp "instrent/internal/app/handlers/rental"
	"instrent/internal/app/middleware"
	"instrent/internal/app/queries"
	"instrent/internal/infra/config"
	ginserver "instrent/internal/infra/http/gin"
	"instrent/internal/infra/obs"
	"instrent/internal/infra/storage/memory"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	factory := memory.NewFactory()
	ob := memory.NewOutbox()

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, itemsapp.CreateItemCommand{}.Key(),
		&itemsapp.CreateItemHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, availabilityapp.BlockRangeCommand{}.Key(),
		&availabilityapp.BlockRangeHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, availabilityapp.ReleaseRangeCommand{}.Key(),
		&availabilityapp.ReleaseRangeHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, rentalapp.SubmitRequestCommand{}.Key(),
		&rentalapp.SubmitRequestHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, rentalapp.DecideRequestCommand{}.Key(),
		&rentalapp.DecideRequestHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, rentalapp.CancelRequestCommand{}.Key(),
		&rentalapp.CancelRequestHandler{UoWFactory: factory, Outbox: ob})
	commands.RegisterHandler(commandBus, rentalapp.RecordCompletionCommand{}.Key(),
		&rentalapp.RecordCompletionHandler{UoWFactory: factory, Outbox: ob})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, itemsapp.GetItemQuery{}.Key(), &itemsapp.GetItemHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, rentalapp.GetRequestQuery{}.Key(), &rentalapp.GetRequestHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, rentalapp.ListRequestsQuery{}.Key(), &rentalapp.ListRequestsHandler{UoWFactory: factory})

	wrapped := middleware.ChainCommands(commandBus, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: obs.NewLogger("test")}, obs.HealthHandlers{}, ginserver.Handlers{
		Items:        ginserver.ItemHandler{Commands: wrapped, Queries: queryBus},
		Availability: ginserver.AvailabilityHandler{Commands: wrapped, Queries: queryBus},
		Requests:     ginserver.RequestHandler{Commands: wrapped, Queries: queryBus},
	})
	return server.Handler
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	parsed := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), "body: %s", rec.Body.String())
	}
	return rec, parsed
}

func createItem(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/items",
		`{"owner_id":"owner-1","name":"Nord Stage 4","daily_rate_amount":1000,"currency":"EUR"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func submitRequest(t *testing.T, h http.Handler, itemID string, startDay, endDay int) string {
	t.Helper()
	payload := fmt.Sprintf(`{"item_id":%q,"renter_id":"renter-1","start":"2026-03-%02dT00:00:00Z","end":"2026-03-%02dT00:00:00Z"}`,
		itemID, startDay, endDay)
	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/requests", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := body["request_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(t)
	rec, _ := doJSON(t, h, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doJSON(t, h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetItem(t *testing.T) {
	h := newTestServer(t)
	id := createItem(t, h)

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/items/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nord Stage 4", body["name"])
	assert.Equal(t, true, body["available"])

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/items/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRejectsInvalidRange(t *testing.T) {
	h := newTestServer(t)
	itemID := createItem(t, h)

	payload := fmt.Sprintf(`{"item_id":%q,"renter_id":"renter-1","start":"2026-03-05T00:00:00Z","end":"2026-03-05T00:00:00Z"}`, itemID)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/requests", payload, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDecisionConflictOverHTTP(t *testing.T) {
	h := newTestServer(t)
	itemID := createItem(t, h)

	a := submitRequest(t, h, itemID, 1, 3)
	b := submitRequest(t, h, itemID, 2, 4)

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/requests/"+a+"/decision", `{"accept":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ACCEPTED", body["status"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/v1/requests/"+b+"/decision", `{"accept":true}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = doJSON(t, h, http.MethodGet, "/api/v1/requests/"+b, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PENDING", body["status"])

	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/requests/"+b+"/decision", `{"accept":false,"reason":"dates taken"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REJECTED", body["status"])
	assert.Equal(t, "dates taken", body["rejection_reason"])
}

func TestSubmitIdempotencyKeyReplays(t *testing.T) {
	h := newTestServer(t)
	itemID := createItem(t, h)
	headers := map[string]string{"Idempotency-Key": "retry-1"}

	payload := fmt.Sprintf(`{"item_id":%q,"renter_id":"renter-1","start":"2026-03-01T00:00:00Z","end":"2026-03-03T00:00:00Z"}`, itemID)
	rec, first := doJSON(t, h, http.MethodPost, "/api/v1/requests", payload, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, second := doJSON(t, h, http.MethodPost, "/api/v1/requests", payload, headers)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, first["request_id"], second["request_id"], "same key must replay the original request")

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/items/"+itemID+"/requests", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := body["items"].([]any)
	assert.Len(t, items, 1, "the retry must not create a second request")
}

func TestCompletionValidationOverHTTP(t *testing.T) {
	h := newTestServer(t)
	itemID := createItem(t, h)
	a := submitRequest(t, h, itemID, 1, 3)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/requests/"+a+"/completion", `{"score":4.25}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "half-point granularity is enforced")

	rec, _ = doJSON(t, h, http.MethodPost, "/api/v1/requests/"+a+"/completion", `{"score":4.5}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "a pending request cannot be completed")
}

func TestOwnerBlockOverHTTP(t *testing.T) {
	h := newTestServer(t)
	itemID := createItem(t, h)

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/items/"+itemID+"/blocks",
		`{"owner_id":"owner-1","start":"2026-03-10T00:00:00Z","end":"2026-03-12T00:00:00Z"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	blocks, _ := body["blocks"].([]any)
	require.Len(t, blocks, 1)
	ref, _ := blocks[0].(map[string]any)["reference"].(string)
	require.NotEmpty(t, ref)

	rec, body = doJSON(t, h, http.MethodDelete, "/api/v1/items/"+itemID+"/blocks/"+ref, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	blocks, _ = body["blocks"].([]any)
	assert.Empty(t, blocks)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/items/"+itemID+"/calendar", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
