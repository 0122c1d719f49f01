// README: Turn handler tests (binding, status mapping).
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/http/handlers"
	"concierge/internal/modules/rendering"
	"concierge/internal/modules/strategy"
	"concierge/internal/modules/turn"
)

type stubTurns struct {
	mu     sync.Mutex
	got    []turn.Request
	intent turn.Intent
	resp   turn.Response
	err    error
}

func (s *stubTurns) Decide(_ context.Context, req turn.Request) (turn.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, req)
	return s.intent, s.err
}

func (s *stubTurns) Respond(_ context.Context, req turn.Request) (turn.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, req)
	return s.resp, s.err
}

func buildTestRouter(svc handlers.TurnService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewTurnHandler(svc)
	r.POST("/api/turns/decide", h.Decide)
	r.POST("/api/turns/respond", h.Respond)
	return r
}

func doRequest(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDecide_OK(t *testing.T) {
	stub := &stubTurns{intent: turn.Intent{TurnID: "t1", Strategy: strategy.ShowResults()}}
	r := buildTestRouter(stub)

	w := doRequest(r, "/api/turns/decide", `{"sessionId":"s1","storeId":"st","query":"bike","filters":{"style":"city"},"productPrice":{"amount":4500,"currency":"USD"},"clarifierAnswer":{"facet":"price_bucket","value":"Under $50"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body turn.Intent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "t1", body.TurnID)

	require.Len(t, stub.got, 1)
	got := stub.got[0]
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "city", got.Filters["style"])
	require.NotNil(t, got.ProductPrice)
	assert.Equal(t, int64(4500), got.ProductPrice.Amount)
	require.NotNil(t, got.ClarifierAnswer)
	assert.Equal(t, "Under $50", got.ClarifierAnswer.Value)
}

func TestDecide_InvalidJSON(t *testing.T) {
	r := buildTestRouter(&stubTurns{})
	w := doRequest(r, "/api/turns/decide", `{"sessionId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: sessionId is required", turn.ErrBadRequest), http.StatusBadRequest},
		{turn.ErrRendererUnavailable, http.StatusServiceUnavailable},
		{&rendering.RepairError{Stage: rendering.StageFinal, Violations: []rendering.Violation{{Field: "lead", Reason: "empty"}}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := buildTestRouter(&stubTurns{err: tc.err})
		w := doRequest(r, "/api/turns/decide", `{"sessionId":"s1","query":"bike"}`)
		assert.Equal(t, tc.want, w.Code, "decide %v", tc.err)
	}
}

func TestRespond_UnrepairableCarriesIntent(t *testing.T) {
	stub := &stubTurns{
		resp: turn.Response{Intent: turn.Intent{TurnID: "t9", Strategy: strategy.ShowResults()}},
		err:  &rendering.RepairError{Violations: []rendering.Violation{{Field: "lead", Reason: "empty"}}},
	}
	r := buildTestRouter(stub)
	w := doRequest(r, "/api/turns/respond", `{"sessionId":"s1","query":"bike"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error  string       `json:"error"`
		Intent *turn.Intent `json:"intent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Intent)
	assert.Equal(t, "t9", body.Intent.TurnID)
}

func TestRespond_OK(t *testing.T) {
	stub := &stubTurns{resp: turn.Response{
		Intent: turn.Intent{TurnID: "t2"},
		Turn:   rendering.RenderedTurn{Stage: rendering.StageFinal, Lead: "Here you go."},
	}}
	r := buildTestRouter(stub)
	w := doRequest(r, "/api/turns/respond", `{"sessionId":"s1","query":"bike"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lead":"Here you go."`)
	assert.Contains(t, w.Body.String(), `"openerRepeated":false`)
}
