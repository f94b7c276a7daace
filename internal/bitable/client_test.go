package bitable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nconklindev/sheetsync/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(Config{
		BaseURL:  srv.URL,
		AppToken: "app123",
		TableID:  "tbl456",
		Token:    "secret",
		PageSize: 2,
	}, zap.NewNop())
}

func TestListFields_Paginates(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/open-apis/bitable/v1/apps/app123/tables/tbl456/fields", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))

		switch r.URL.Query().Get("page_token") {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{
				"code": 0, "msg": "success",
				"data": map[string]any{
					"has_more":   true,
					"page_token": "p2",
					"items": []map[string]any{
						{"field_id": "fld1", "field_name": "姓名"},
						{"field_id": "fld2", "field_name": "年龄"},
					},
				},
			})
		case "p2":
			writeJSON(w, http.StatusOK, map[string]any{
				"code": 0, "msg": "success",
				"data": map[string]any{
					"has_more": false,
					"items":    []map[string]any{{"field_id": "fld3", "field_name": "部门"}},
				},
			})
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("page_token"))
		}
	})

	fields, err := c.ListFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []types.TargetField{
		{ID: "fld1", Name: "姓名"},
		{ID: "fld2", Name: "年龄"},
		{ID: "fld3", Name: "部门"},
	}, fields)
}

func TestListFields_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 91402, "msg": "NOTEXIST"})
	})

	_, err := c.ListFields(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 91402, apiErr.Code)
	assert.Equal(t, "NOTEXIST", apiErr.Msg)
}

func TestListFields_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"code": 99991663, "msg": "invalid token"})
	})

	_, err := c.ListFields(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "invalid token", apiErr.Msg)
}

func TestCreateRecords(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/open-apis/bitable/v1/apps/app123/tables/tbl456/records/batch_create", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("client_token"))

		var body struct {
			Records []struct {
				Fields map[string]any `json:"fields"`
			} `json:"records"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body.Records, 2) {
			return
		}
		assert.Equal(t, map[string]any{"fld1": "张三", "fld2": 30.0}, body.Records[0].Fields)
		assert.Equal(t, map[string]any{"fld1": "李四"}, body.Records[1].Fields)

		writeJSON(w, http.StatusOK, map[string]any{
			"code": 0, "msg": "success",
			"data": map[string]any{"records": []map[string]any{{"record_id": "rec1"}, {"record_id": "rec2"}}},
		})
	})

	n, err := c.CreateRecords(context.Background(), []types.ProjectedRecord{
		{"fld1": "张三", "fld2": 30.0},
		{"fld1": "李四"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, calls)
}

func TestCreateRecords_SingleAttempt(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusInternalServerError, map[string]any{"code": 1254000, "msg": "internal"})
	})

	_, err := c.CreateRecords(context.Background(), []types.ProjectedRecord{{"f": "v"}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, 1, calls, "submission must not be retried")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{AppToken: "a", TableID: "t", Token: "x"}.Validate())

	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app token")
	assert.Contains(t, err.Error(), "table id")
	assert.Contains(t, err.Error(), "access token")
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, DefaultPageSize, c.cfg.PageSize)
}
