package registry

import (
	"testing"

	"github.com/doumanash/roseline/internal/executor"
)

func TestExecutorReturnsErrNotReadyBeforeSet(t *testing.T) {
	Reset()
	if _, err := Executor(); err != ErrNotReady {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
}

func TestSetExecutorThenGet(t *testing.T) {
	Reset()
	defer Reset()

	e := executor.New(nil, nil, nil)
	SetExecutor(e)

	got, err := Executor()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != e {
		t.Fatal("got a different executor instance back")
	}
}
