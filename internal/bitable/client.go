// Package bitable talks to a Feishu/Lark Bitable table: it lists the
// table's fields and creates records.
package bitable

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://open.feishu.cn"
	DefaultTimeout  = 20 * time.Second
	DefaultPageSize = 100

	fieldsPath  = "/open-apis/bitable/v1/apps/{app}/tables/{table}/fields"
	recordsPath = "/open-apis/bitable/v1/apps/{app}/tables/{table}/records/batch_create"
)

// Config identifies the remote table and carries the bearer credential.
type Config struct {
	BaseURL  string
	AppToken string
	TableID  string
	Token    string
	Timeout  time.Duration
	PageSize int
}

// Validate reports missing identifiers.
func (c Config) Validate() error {
	var errs []error
	if c.AppToken == "" {
		errs = append(errs, errors.New("app token is required"))
	}
	if c.TableID == "" {
		errs = append(errs, errors.New("table id is required"))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("access token is required"))
	}
	return errors.Join(errs...)
}

// APIError is a failed call as reported by the remote table.
type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitable: status %d, code %d: %s", e.Status, e.Code, e.Msg)
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type fieldsResponse struct {
	envelope
	Data struct {
		HasMore   bool   `json:"has_more"`
		PageToken string `json:"page_token"`
		Items     []struct {
			FieldID   string `json:"field_id"`
			FieldName string `json:"field_name"`
		} `json:"items"`
	} `json:"data"`
}

type recordPayload struct {
	Fields types.ProjectedRecord `json:"fields"`
}

type createResponse struct {
	envelope
	Data struct {
		Records []struct {
			RecordID string `json:"record_id"`
		} `json:"records"`
	} `json:"data"`
}

// Client is a Bitable API client. Calls are made once; there is no retry.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *zap.Logger
}

// New returns a client for cfg.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetPathParams(map[string]string{"app": cfg.AppToken, "table": cfg.TableID})

	return &Client{cfg: cfg, http: h, logger: logger}
}

// ListFields returns the table's fields in the order the API lists them,
// following pagination.
func (c *Client) ListFields(ctx context.Context) ([]types.TargetField, error) {
	var (
		fields    []types.TargetField
		pageToken string
	)

	for {
		var resp fieldsResponse
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("page_size", strconv.Itoa(c.cfg.PageSize)).
			SetResult(&resp).
			SetError(&resp)
		if pageToken != "" {
			req.SetQueryParam("page_token", pageToken)
		}

		r, err := req.Get(fieldsPath)
		if err != nil {
			return nil, fmt.Errorf("list fields: %w", err)
		}
		if err := check(r, resp.envelope); err != nil {
			return nil, fmt.Errorf("list fields: %w", err)
		}

		for _, it := range resp.Data.Items {
			fields = append(fields, types.TargetField{ID: it.FieldID, Name: it.FieldName})
		}

		if !resp.Data.HasMore || resp.Data.PageToken == "" {
			break
		}
		pageToken = resp.Data.PageToken
	}

	c.logger.Debug("Listed fields", zap.String("table", c.cfg.TableID), zap.Int("count", len(fields)))
	return fields, nil
}

// CreateRecords submits every record in one batch call and returns how many
// records the table reports as created. The call either succeeds as a
// whole or fails with an *APIError or a transport error.
func (c *Client) CreateRecords(ctx context.Context, records []types.ProjectedRecord) (int, error) {
	payload := struct {
		Records []recordPayload `json:"records"`
	}{Records: make([]recordPayload, len(records))}
	for i, rec := range records {
		payload.Records[i] = recordPayload{Fields: rec}
	}

	token := uuid.NewString()
	c.logger.Info("Submitting records",
		zap.String("table", c.cfg.TableID),
		zap.Int("records", len(records)),
		zap.String("client_token", token),
	)

	var resp createResponse
	r, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("client_token", token).
		SetBody(payload).
		SetResult(&resp).
		SetError(&resp).
		Post(recordsPath)
	if err != nil {
		return 0, fmt.Errorf("create records: %w", err)
	}
	if err := check(r, resp.envelope); err != nil {
		return 0, fmt.Errorf("create records: %w", err)
	}

	return len(resp.Data.Records), nil
}

func check(r *resty.Response, env envelope) error {
	if r.IsError() || env.Code != 0 {
		msg := env.Msg
		if msg == "" {
			msg = r.Status()
		}
		return &APIError{Status: r.StatusCode(), Code: env.Code, Msg: msg}
	}
	return nil
}
