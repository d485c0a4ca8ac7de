package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupDirs(t *testing.T) (gtDir, queryDir string) {
	t.Helper()
	gtDir = filepath.Join(t.TempDir(), "gt")
	queryDir = filepath.Join(t.TempDir(), "queries")
	for _, dir := range []string{gtDir, queryDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return gtDir, queryDir
}

func TestLoad(t *testing.T) {
	gtDir, queryDir := setupDirs(t)

	writeFile(t, filepath.Join(gtDir, "jaguar.txt"), "1\n2\n3\n")
	writeFile(t, filepath.Join(queryDir, "jaguar.txt"), "10\n11\n")
	// Topic with ground truth but no query list is skipped.
	writeFile(t, filepath.Join(gtDir, "bass.txt"), "4\n5\n")

	queries, err := Load(gtDir, queryDir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}

	q, ok := queries["jaguar/10"]
	if !ok {
		t.Fatal("missing query jaguar/10")
	}
	if q.ImgID != 10 {
		t.Errorf("ImgID = %d, want 10", q.ImgID)
	}
	if !q.IsRelevant(2) {
		t.Error("image 2 should be relevant")
	}
	if q.IsRelevant(10) {
		t.Error("seed image is not in the relevant set")
	}
}

func TestLoadWithDuplicates(t *testing.T) {
	gtDir, queryDir := setupDirs(t)
	writeFile(t, filepath.Join(gtDir, "jaguar.txt"), "1\n2\n")
	writeFile(t, filepath.Join(queryDir, "jaguar.txt"), "10\n")
	writeFile(t, filepath.Join(gtDir, "bass.txt"), "3\n")
	writeFile(t, filepath.Join(queryDir, "bass.txt"), "20\n")

	dupFile := filepath.Join(t.TempDir(), "duplicates.txt")
	// First group member is canonical, the rest are ignored. A one-member
	// line carries no duplicates.
	writeFile(t, dupFile, "100 101 102\n200 201\n300\n")

	queries, err := Load(gtDir, queryDir, dupFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// The ignore set is global: every query sees the same duplicates.
	for _, qid := range []string{"jaguar/10", "bass/20"} {
		q := queries[qid]
		for _, id := range []int64{101, 102, 201} {
			if _, ok := q.Ignore[id]; !ok {
				t.Errorf("%s: image %d should be ignored", qid, id)
			}
		}
		for _, id := range []int64{100, 200, 300} {
			if _, ok := q.Ignore[id]; ok {
				t.Errorf("%s: image %d should not be ignored", qid, id)
			}
		}
	}
}

func TestLoadEmptyIsConfigError(t *testing.T) {
	gtDir, queryDir := setupDirs(t)

	_, err := Load(gtDir, queryDir, "")
	if err == nil {
		t.Fatal("expected error for empty query set")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExcludeSetIsFresh(t *testing.T) {
	q := &Query{
		ImgID:  7,
		Ignore: map[int64]struct{}{9: {}},
	}

	first := q.ExcludeSet()
	first[123] = struct{}{}

	second := q.ExcludeSet()
	want := map[int64]struct{}{7: {}, 9: {}}
	if !reflect.DeepEqual(second, want) {
		t.Errorf("ExcludeSet() = %v, want %v (mutation of a previous result leaked)", second, want)
	}
}

func TestSortedIDs(t *testing.T) {
	queries := map[string]*Query{
		"b/2": {ID: "b/2"},
		"a/1": {ID: "a/1"},
		"a/9": {ID: "a/9"},
	}
	got := SortedIDs(queries)
	want := []string{"a/1", "a/9", "b/2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedIDs() = %v, want %v", got, want)
	}
}
