package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected default filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("unexpected default dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("log file should be touched on resolve: %v", err)
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "lingqian-test.log"})
	log.Info("release_mode_message")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "lingqian-test.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "release_mode_message") {
		t.Fatalf("log file missing message: %s", text)
	}
	// release 模式输出 JSON，message 键来自 encoder 配置
	if !strings.Contains(text, `"message"`) {
		t.Fatalf("expected json encoding, got: %s", text)
	}
}

func TestDebugModeWritesToStdoutOnly(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Debug("debug_mode_message")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode must not create a log file")
	}
}

func TestFallbackWhenUninitialized(t *testing.T) {
	old := L
	L = nil
	t.Cleanup(func() { L = old })

	if Z() == nil {
		t.Fatalf("Z should never return nil")
	}
	if S() == nil {
		t.Fatalf("S should never return nil")
	}
	// SW 带字段也要能在未初始化时落到兜底实例
	SW("request_id", "test").Infow("fallback_message")
}

func TestNormalizePositiveInt(t *testing.T) {
	if got := normalizePositiveInt(0, 7); got != 7 {
		t.Fatalf("zero should fall back, got %d", got)
	}
	if got := normalizePositiveInt(-3, 7); got != 7 {
		t.Fatalf("negative should fall back, got %d", got)
	}
	if got := normalizePositiveInt(12, 7); got != 12 {
		t.Fatalf("positive should pass through, got %d", got)
	}
}
