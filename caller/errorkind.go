//
// Tencent is pleased to support the open source community by making trpc-ragmark-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-ragmark-go is licensed under the Apache License Version 2.0.
//
//

package caller

import "net/http"

// ErrorKind classifies a failed endpoint call. The set is closed; everything
// a pipeline can do wrong maps onto exactly one kind.
type ErrorKind string

const (
	// ErrorKindTimeout indicates the request exceeded its deadline, or its
	// measured latency exceeded the configured ceiling.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindNetwork indicates a connection-level failure before any HTTP response.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindRateLimit indicates HTTP 429.
	ErrorKindRateLimit ErrorKind = "rate_limit"
	// ErrorKindServerError indicates HTTP 500 or above.
	ErrorKindServerError ErrorKind = "server_error"
	// ErrorKindClientError indicates a 4xx other than 429.
	ErrorKindClientError ErrorKind = "client_error"
	// ErrorKindEmptyResponse indicates a 2xx response with no usable answer field.
	// Pipelines that silently swallow output must be distinguishable from
	// pipelines that correctly answer "no information".
	ErrorKindEmptyResponse ErrorKind = "empty_response"
	// ErrorKindUnknown indicates a failure not matching any other kind.
	ErrorKindUnknown ErrorKind = "unknown"
)

// classifyStatus maps a non-2xx HTTP status code to an error kind.
func classifyStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorKindRateLimit
	case statusCode >= 500:
		return ErrorKindServerError
	case statusCode >= 400:
		return ErrorKindClientError
	default:
		return ErrorKindUnknown
	}
}

// retriable reports whether an attempt that failed with the given kind and
// status should be retried. HTTP 403 is the one client error treated as
// transient: gateway auth layers in front of the pipelines return it while
// sessions are being re-established.
func retriable(kind ErrorKind, statusCode int) bool {
	switch kind {
	case ErrorKindTimeout, ErrorKindNetwork, ErrorKindRateLimit, ErrorKindServerError:
		return true
	case ErrorKindClientError:
		return statusCode == http.StatusForbidden
	default:
		return false
	}
}
