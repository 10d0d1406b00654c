package process

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

func TestReadPIDFileValid(t *testing.T) {
	// Write our own PID to a temp file
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pid")

	myPID := os.Getpid()
	if err := WritePIDFile(path, myPID); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	pid, state, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateRunning {
		t.Errorf("expected StateRunning, got %v", state)
	}
	if pid != myPID {
		t.Errorf("expected PID %d, got %d", myPID, pid)
	}
}

func TestWritePIDFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "child.pid")
	if err := WritePIDFile(path, 1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(data) != "1234\n" {
		t.Errorf("unexpected content %q", data)
	}

	if err := WritePIDFile(path, 0); err == nil {
		t.Error("expected error for PID 0")
	}
}

func TestReadPIDFileInvalidContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pid")

	if err := os.WriteFile(path, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	_, state, err := ReadPIDFile(path)
	if state != StateError || err == nil {
		t.Errorf("expected StateError with error for invalid content, got %v, %v", state, err)
	}
}

func TestReadPIDFileEmptyAndNegative(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{"empty": "  \n", "negative": "-5\n"} {
		path := filepath.Join(dir, name+".pid")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write PID file: %v", err)
		}
		if _, _, err := ReadPIDFile(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestReadPIDFileNonexistentPID(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PID ranges are not bounded on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pid")

	// Use a very high PID that almost certainly doesn't exist
	if err := os.WriteFile(path, []byte("4194304\nextra data\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	pid, state, _ := ReadPIDFile(path)
	if state != StateExited {
		t.Errorf("expected StateExited for nonexistent PID, got %v", state)
	}
	if pid != 4194304 {
		t.Errorf("expected PID 4194304, got %d", pid)
	}
}

func TestReadPIDFilePermissionMeansAlive(t *testing.T) {
	orig := probePIDFunc
	probePIDFunc = func(pid int) (RunState, error) {
		return StateError, &ProbeError{PID: pid, Err: fs.ErrPermission}
	}
	defer func() { probePIDFunc = orig }()

	path := filepath.Join(t.TempDir(), "root.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(1)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	pid, state, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid != 1 || state != StateRunning {
		t.Errorf("expected running PID 1, got %d %v", pid, state)
	}
}

func TestReadPIDFileNotFound(t *testing.T) {
	_, state, err := ReadPIDFile("/nonexistent/path/test.pid")
	if state != StateError {
		t.Errorf("expected StateError for missing file, got %v", state)
	}
	if err == nil {
		t.Error("expected error for missing file")
	}
}
