// Package apiclient is the HTTP client the terminal chat uses to talk to a
// running support-chat server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
)

// Client хранит cookie сессии между вызовами, как браузер.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

type MessageReply struct {
	Reply    string  `json:"reply"`
	TicketID *uint64 `json:"ticket_id,omitempty"`
}

// StatusError: ответ сервера с кодом не 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) SendMessage(ctx context.Context, text string) (*MessageReply, error) {
	var out MessageReply
	if err := c.do(ctx, http.MethodPost, "/api/message", map[string]string{"message": text}, &out); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", errs.ErrEmptyMessage, se.Message)
		}
		return nil, err
	}
	return &out, nil
}

// GetTicket реализует ticketsync.TicketGetter.
func (c *Client) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
	var out struct {
		Ticket model.Ticket `json:"ticket"`
	}
	err := c.do(ctx, http.MethodGet, "/api/tickets/"+strconv.FormatUint(id, 10), nil, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &out.Ticket, nil
}

func (c *Client) AddToHistory(ctx context.Context, role model.Role, text string) error {
	return c.do(ctx, http.MethodPost, "/api/add_to_history", map[string]string{
		"role": string(role),
		"text": text,
	}, nil)
}

func (c *Client) History(ctx context.Context) ([]model.TranscriptEntry, error) {
	var out struct {
		History []model.TranscriptEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// errorMessage достаёт текст ошибки из {"error": ...} или {"reply": ...}.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
		Reply string `json:"reply"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Reply != "" {
			return body.Reply
		}
	}
	return strings.TrimSpace(string(raw))
}
