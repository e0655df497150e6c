package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"finlens/internal/classifier"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

var accuracyLine = regexp.MustCompile(`Held-out accuracy: ([0-9.]+)% \((\d+) of (\d+)\)`)

func TestTrainWritesLoadableModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "receipt_categorizer.gob")

	out, err := execute(t, "train", "--out", path, "--rounds", "100", "--seed", "42", "--log-level", "error")
	if err != nil {
		t.Fatalf("train: %v\n%s", err, out)
	}

	m := accuracyLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no accuracy line in output:\n%s", out)
	}
	acc, _ := strconv.ParseFloat(m[1], 64)
	hits, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	if total == 0 || hits > total {
		t.Fatalf("accuracy line %q", m[0])
	}
	if acc < 50 {
		t.Errorf("held-out accuracy %.2f%% is too low", acc)
	}
	if !strings.Contains(out, "Model written to "+path) {
		t.Errorf("missing model path in output:\n%s", out)
	}

	model, err := classifier.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if model.VocabularySize() == 0 {
		t.Fatal("reloaded model has an empty vocabulary")
	}

	out, err = execute(t, "classify", "--model", path, "--log-level", "error", "Milk 1L")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "Groceries") || !strings.Contains(out, "Milk 1L") {
		t.Fatalf("classify output:\n%s", out)
	}
}

func TestTrainRejectsBadFlags(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero rounds", []string{"--rounds", "0"}, "--rounds"},
		{"test split too large", []string{"--test-frac", "1"}, "--test-frac"},
		{"missing corpus", []string{"--corpus", filepath.Join(dir, "absent.yaml")}, "absent.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"train", "--out", filepath.Join(dir, "m.gob"), "--log-level", "error"}, tt.args...)
			_, err := execute(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestClassifyMissingModel(t *testing.T) {
	_, err := execute(t, "classify", "--model", filepath.Join(t.TempDir(), "none.gob"), "Milk")
	if err == nil || !strings.Contains(err.Error(), "none.gob") {
		t.Fatalf("err = %v", err)
	}
}
