//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

// Package caller sends single questions to RAG pipeline HTTP endpoints and
// normalizes their responses.
package caller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

// Result is the outcome of one Call, covering both the success and the error
// path as a tagged value: ErrorKind is empty exactly when an answer was
// extracted.
type Result struct {
	// Answer is the extracted answer payload. Empty on the error path.
	Answer string `json:"answer,omitempty"`
	// LatencyMS is wall-clock time from dispatch to final byte, including all retries.
	LatencyMS int64 `json:"latencyMs"`
	// HTTPStatus is the last HTTP status received, nil if no response arrived.
	HTTPStatus *int `json:"httpStatus,omitempty"`
	// ErrorKind classifies the failure. Empty on success.
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	// ErrorDetail carries a short human-readable failure reason.
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// OK reports whether the call produced a usable answer.
func (r Result) OK() bool {
	return r.ErrorKind == ""
}

// Caller sends one question to a pipeline endpoint.
type Caller interface {
	// Call sends the question and returns a normalized result. It never
	// returns an error: per-question failures are values, so one bad
	// question can never abort an evaluation batch.
	Call(ctx context.Context, question string) Result
}

// httpCaller is the HTTP implementation of Caller.
type httpCaller struct {
	endpoint string
	client   *http.Client
	opts     *Options
}

// New creates a Caller for the given pipeline endpoint.
func New(endpoint string, opt ...Option) (Caller, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is empty")
	}
	opts := NewOptions(opt...)
	if opts.MaxAttempts <= 0 {
		return nil, errors.New("max attempts must be greater than 0")
	}
	if opts.Timeout <= 0 {
		return nil, errors.New("timeout must be greater than 0")
	}
	if len(opts.AnswerFields) == 0 {
		return nil, errors.New("answer fields are empty")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &httpCaller{endpoint: endpoint, client: client, opts: opts}, nil
}

// attemptOutcome carries the classification of a single HTTP attempt.
type attemptOutcome struct {
	answer     string
	httpStatus *int
	kind       ErrorKind
	detail     string
}

// Call sends the question with retry on transient failures. Latency covers
// the full elapsed time across all attempts and backoff sleeps.
func (c *httpCaller) Call(ctx context.Context, question string) Result {
	start := time.Now()
	var last attemptOutcome

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.BackoffBase
	bo.MaxInterval = c.opts.BackoffCap
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.opts.MaxAttempts-1)), ctx)

	operation := func() error {
		last = c.attempt(ctx, question)
		if last.kind == "" {
			return nil
		}
		err := fmt.Errorf("%s: %s", last.kind, last.detail)
		status := 0
		if last.httpStatus != nil {
			status = *last.httpStatus
		}
		if retriable(last.kind, status) {
			return err
		}
		return backoff.Permanent(err)
	}
	// The returned error is already reflected in the last attempt outcome.
	_ = backoff.Retry(operation, policy)

	result := Result{
		Answer:      last.answer,
		LatencyMS:   time.Since(start).Milliseconds(),
		HTTPStatus:  last.httpStatus,
		ErrorKind:   last.kind,
		ErrorDetail: last.detail,
	}
	if result.OK() && c.opts.LatencyCeiling > 0 && time.Since(start) > c.opts.LatencyCeiling {
		result.Answer = ""
		result.ErrorKind = ErrorKindTimeout
		result.ErrorDetail = fmt.Sprintf("latency exceeded ceiling %s", c.opts.LatencyCeiling)
	}
	return result
}

// attempt performs one HTTP round trip and classifies the outcome.
func (c *httpCaller) attempt(ctx context.Context, question string) attemptOutcome {
	body := make(map[string]any, len(c.opts.Metadata)+1)
	for key, value := range c.opts.Metadata {
		body[key] = value
	}
	body[c.opts.QuestionField] = question
	payload, err := json.Marshal(body)
	if err != nil {
		return attemptOutcome{kind: ErrorKindUnknown, detail: fmt.Sprintf("marshal request: %v", err)}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return attemptOutcome{kind: ErrorKindUnknown, detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return attemptOutcome{kind: classifyTransportError(err), detail: err.Error()}
	}
	defer resp.Body.Close()
	status := resp.StatusCode
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptOutcome{httpStatus: &status, kind: classifyTransportError(err), detail: fmt.Sprintf("read response: %v", err)}
	}
	if status < 200 || status >= 300 {
		return attemptOutcome{
			httpStatus: &status,
			kind:       classifyStatus(status),
			detail:     fmt.Sprintf("http status %d", status),
		}
	}
	answer, ok := extractAnswer(respBody, c.opts.AnswerFields)
	if !ok {
		return attemptOutcome{httpStatus: &status, kind: ErrorKindEmptyResponse, detail: "no answer field in response"}
	}
	return attemptOutcome{answer: answer, httpStatus: &status}
}

// classifyTransportError maps a connection-level error to timeout or network.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindNetwork
}

// extractAnswer tries the ordered field paths against the response document
// and returns the first present non-empty value. Responses wrapped in a
// single-element JSON array are unwrapped first.
func extractAnswer(body []byte, fields []string) (string, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", false
	}
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		elems := doc.Array()
		if len(elems) == 0 {
			return "", false
		}
		doc = elems[0]
	}
	for _, path := range fields {
		value := doc.Get(path)
		if !value.Exists() {
			continue
		}
		if answer := strings.TrimSpace(value.String()); answer != "" {
			return answer, true
		}
	}
	return "", false
}
