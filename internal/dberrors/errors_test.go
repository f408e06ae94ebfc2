package dberrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKinds_IsAndAs(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"connection", &ConnectionError{Driver: "snowflake", Err: cause}, ErrConnection},
		{"execution", &DatabaseExecutionError{ScriptName: "001.sql", Index: 1, Err: cause}, ErrDatabaseExecution},
		{"journal", &JournalWriteError{ScriptName: "001.sql", Err: cause}, ErrJournalWrite},
		{"schema", &SchemaCreationError{Object: "schema", Err: cause}, ErrSchemaCreation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("run: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Fatalf("errors.Is(%v, kind) = false", wrapped)
			}
			if !errors.Is(wrapped, cause) {
				t.Fatalf("cause not reachable through Unwrap")
			}
			for _, other := range []error{ErrConnection, ErrDatabaseExecution, ErrJournalWrite, ErrSchemaCreation} {
				if other != tt.kind && errors.Is(tt.err, other) {
					t.Fatalf("%v unexpectedly matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestDatabaseExecutionError_Message(t *testing.T) {
	err := &DatabaseExecutionError{ScriptName: "002_x.sql", Index: 1, Code: "2003", Message: "object does not exist"}
	msg := err.Error()
	for _, want := range []string{"002_x.sql", "statement 1", "code 2003", "object does not exist"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	var target *DatabaseExecutionError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) || target.Index != 1 {
		t.Fatalf("errors.As failed: %+v", target)
	}
	if got := (&DatabaseExecutionError{}).Error(); !strings.Contains(got, "code unknown") {
		t.Fatalf("expected unknown code, got %q", got)
	}
}
