package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempLogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "audit.jsonl")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestRecordChainsHashes(t *testing.T) {
	path := tempLogPath(t)
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	entries := []Entry{
		{RequestID: "r1", SubjectID: "alice", Decision: DecisionAllow, RiskLevel: "low"},
		{RequestID: "r2", SubjectID: "alice", Decision: DecisionDeny, Category: "content_blocked", RiskLevel: "medium"},
		{RequestID: "r3", SubjectID: "bob", Decision: DecisionWarn, RiskLevel: "low"},
	}
	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var first Entry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.PrevHash != GenesisHash {
		t.Errorf("first entry prev_hash = %q, expected genesis", first.PrevHash)
	}
	if first.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}

	var second Entry
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if second.PrevHash != HashLine([]byte(lines[0])) {
		t.Errorf("second entry prev_hash does not chain to first line")
	}
}

func TestReopenRecoversChainTail(t *testing.T) {
	path := tempLogPath(t)

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := log.Record(Entry{RequestID: "r1", SubjectID: "alice", Decision: DecisionAllow, RiskLevel: "low"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	log.Close()

	log2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := log2.Record(Entry{RequestID: "r2", SubjectID: "alice", Decision: DecisionDeny, RiskLevel: "low"}); err != nil {
		t.Fatalf("Record after reopen: %v", err)
	}
	log2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Errorf("chain broken after reopen: %s (line %d)", result.Error, result.ErrorLine)
	}
	if result.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := tempLogPath(t)
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := log.Record(Entry{RequestID: "r", SubjectID: "alice", Decision: DecisionAllow, RiskLevel: "low"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	log.Close()

	lines := readLines(t, path)
	lines[1] = strings.Replace(lines[1], `"allow"`, `"deny"`, 1)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("tampered log verified as valid")
	}
	if result.ErrorLine != 3 {
		t.Errorf("expected break detected at line 3, got %d", result.ErrorLine)
	}
}

func TestVerifyRejectsWrongGenesis(t *testing.T) {
	path := tempLogPath(t)
	entry := Entry{RequestID: "r1", Decision: DecisionAllow, RiskLevel: "low", PrevHash: "sha256:deadbeef"}
	line, _ := json.Marshal(entry)
	if err := os.WriteFile(path, append(line, '\n'), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("log with bad genesis verified as valid")
	}
	if result.ErrorLine != 1 {
		t.Errorf("expected error at line 1, got %d", result.ErrorLine)
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	path := tempLogPath(t)
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := Verify(path)
	if !result.Valid || result.Lines != 0 {
		t.Errorf("empty log: %+v", result)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	result := Verify(filepath.Join(t.TempDir(), "nope.jsonl"))
	if result.Valid {
		t.Error("missing file verified as valid")
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func BenchmarkRecord(b *testing.B) {
	path := filepath.Join(b.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		b.Fatalf("Open: %v", err)
	}
	defer log.Close()

	entry := Entry{
		RequestID: "bench",
		SubjectID: "alice",
		Decision:  DecisionAllow,
		RiskLevel: "low",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := log.Record(entry); err != nil {
			b.Fatal(err)
		}
	}
}
