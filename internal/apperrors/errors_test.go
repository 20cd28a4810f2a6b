package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: NewValidation("task_name", "required"), want: KindValidation},
		{name: "wrapped auth", err: fmt.Errorf("create task: %w", &AuthError{}), want: KindAuth},
		{name: "network", err: &NetworkError{Op: "get lists", Err: errors.New("dial tcp")}, want: KindNetwork},
		{name: "server", err: &ServerError{StatusCode: 500, Message: "boom"}, want: KindServer},
		{name: "parse", err: &ParseError{Value: "x", Layout: "date"}, want: KindParse},
		{
			name: "validation wrapping parse",
			err:  &ValidationError{Field: "task_start_date", Message: "bad", Err: &ParseError{Value: "x", Layout: "date"}},
			want: KindValidation,
		},
		{name: "plain", err: errors.New("other"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthErrorUnwrapsToUnauthenticated(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("get lists: %w", &AuthError{Message: "no auth token available"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Error("Expected AuthError to unwrap to ErrUnauthenticated")
	}
	if err.Error() != "get lists: no auth token available" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestServerErrorMessageVerbatim(t *testing.T) {
	t.Parallel()

	err := &ServerError{StatusCode: 400, Message: "Task name too long"}
	if err.Error() != "Task name too long" {
		t.Errorf("Expected verbatim message, got %q", err.Error())
	}
	if Retryable(err) {
		t.Error("Server errors must not be retryable")
	}
	if !Retryable(&NetworkError{Op: "x", Err: errors.New("timeout")}) {
		t.Error("Network errors should be retryable")
	}
}
