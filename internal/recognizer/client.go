// Package recognizer содержит HTTP-клиент внешнего сервиса распознавания лиц.
package recognizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Spok95/classroom-attendance/internal/capture"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type enrollRequest struct {
	Identity string   `json:"identity"`
	Images   []string `json:"images"`
}

type enrollResponse struct {
	Accepted int `json:"accepted"`
}

type recognizeResponse struct {
	Identities []string `json:"identities"`
}

// Enroll передаёт эталонные снимки человека. Возвращает, сколько из них
// сервис принял (на остальных лицо не найдено).
func (c *Client) Enroll(ctx context.Context, identity string, images [][]byte) (int, error) {
	req := enrollRequest{Identity: identity, Images: make([]string, 0, len(images))}
	for _, img := range images {
		req.Images = append(req.Images, base64.StdEncoding.EncodeToString(img))
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	var resp enrollResponse
	if err := c.do(ctx, "/v1/enroll", "application/json", body, &resp); err != nil {
		return 0, err
	}
	return resp.Accepted, nil
}

// Recognize: список распознанных на кадре людей; пустой список не ошибка.
func (c *Client) Recognize(ctx context.Context, f capture.Frame) ([]string, error) {
	if len(f.Data) == 0 {
		return nil, errors.New("recognize: пустой кадр")
	}
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	var resp recognizeResponse
	if err := c.do(ctx, "/v1/recognize", ct, f.Data, &resp); err != nil {
		return nil, err
	}
	return resp.Identities, nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: разбор ответа: %w", path, err)
	}
	return nil
}
