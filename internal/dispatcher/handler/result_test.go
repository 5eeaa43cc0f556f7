package handler_test

import (
	"errors"
	"testing"

	"github.com/dshills/inkwell/internal/dispatcher/handler"
)

func TestResultStatus(t *testing.T) {
	tests := []struct {
		status   handler.ResultStatus
		expected string
	}{
		{handler.StatusOK, "ok"},
		{handler.StatusNoOp, "no-op"},
		{handler.StatusError, "error"},
		{handler.StatusCancelled, "cancelled"},
		{handler.ResultStatus(99), "unknown"},
	}

	for _, tc := range tests {
		if tc.status.String() != tc.expected {
			t.Errorf("ResultStatus(%d).String() = %q, want %q", tc.status, tc.status.String(), tc.expected)
		}
	}
}

func TestConstructors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		result  handler.Result
		status  handler.ResultStatus
		message string
		isErr   bool
	}{
		{"success", handler.Success(), handler.StatusOK, "", false},
		{"success message", handler.SuccessWithMessage("done"), handler.StatusOK, "done", false},
		{"noop", handler.NoOp(), handler.StatusNoOp, "", false},
		{"noop message", handler.NoOpWithMessage("nothing"), handler.StatusNoOp, "nothing", false},
		{"error", handler.Error(errBoom), handler.StatusError, "", true},
		{"errorf", handler.Errorf("bad %d", 1), handler.StatusError, "", true},
		{"cancelled", handler.Cancelled(), handler.StatusCancelled, "", false},
		{"cancelled message", handler.CancelledWithMessage("hook"), handler.StatusCancelled, "hook", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.result.Status != tc.status {
				t.Errorf("Status = %v, want %v", tc.result.Status, tc.status)
			}
			if tc.result.Message != tc.message {
				t.Errorf("Message = %q, want %q", tc.result.Message, tc.message)
			}
			if (tc.result.Error != nil) != tc.isErr {
				t.Errorf("Error = %v, want error %v", tc.result.Error, tc.isErr)
			}
			if tc.result.IsError() != tc.isErr {
				t.Errorf("IsError() = %v", tc.result.IsError())
			}
			if tc.result.IsOK() != (tc.status == handler.StatusOK) {
				t.Errorf("IsOK() = %v", tc.result.IsOK())
			}
		})
	}

	if got := handler.Errorf("bad %d", 1).Error.Error(); got != "bad 1" {
		t.Errorf("Errorf message = %q", got)
	}
}

func TestResultBuilders(t *testing.T) {
	r := handler.Success().WithMessage("applied").WithDocChanged(true)

	if r.Message != "applied" {
		t.Errorf("Message = %q", r.Message)
	}
	if !r.DocChanged {
		t.Error("expected DocChanged")
	}
}

func TestResultData(t *testing.T) {
	r := handler.SuccessWithData("href", "https://example.com").
		WithData("rows", 3).
		WithData("rows64", int64(4)).
		WithData("cols", float64(2)).
		WithData("header", true)

	if got := r.GetDataString("href"); got != "https://example.com" {
		t.Errorf("GetDataString(href) = %q", got)
	}
	if got := r.GetDataString("rows"); got != "" {
		t.Errorf("GetDataString(rows) = %q, want empty", got)
	}
	if got := r.GetDataInt("rows"); got != 3 {
		t.Errorf("GetDataInt(rows) = %d", got)
	}
	if got := r.GetDataInt("rows64"); got != 4 {
		t.Errorf("GetDataInt(rows64) = %d", got)
	}
	if got := r.GetDataInt("cols"); got != 2 {
		t.Errorf("GetDataInt(cols) = %d", got)
	}
	if !r.GetDataBool("header") {
		t.Error("GetDataBool(header) = false")
	}
	if r.GetDataBool("missing") {
		t.Error("GetDataBool(missing) = true")
	}
}

func TestResultGetDataNilMap(t *testing.T) {
	r := handler.Success()

	if _, ok := r.GetData("key"); ok {
		t.Error("expected no data on nil map")
	}
	if r.GetDataInt("key") != 0 {
		t.Error("expected zero int on nil map")
	}
}
