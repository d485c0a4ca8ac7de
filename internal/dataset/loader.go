package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// Load reads benchmark queries from a ground-truth directory.
//
// gtDir contains one label file per topic ("<topic>.txt", one relevant image
// ID per line). queryDir contains the matching query list files ("<topic>.txt",
// one seed image ID per line); topics without a query list are skipped. dupFile
// optionally lists groups of near-duplicate images, one whitespace-separated
// group per line; all but the first member of each group are added to every
// query's ignore set.
//
// An empty result is a configuration error: the caller must not start a run
// without queries.
func Load(gtDir, queryDir, dupFile string) (map[string]*Query, error) {
	if queryDir == "" {
		queryDir = gtDir
	}

	topics, err := listTopics(gtDir)
	if err != nil {
		return nil, err
	}

	var ignore map[int64]struct{}
	if dupFile != "" {
		ignore, err = loadDuplicates(dupFile)
		if err != nil {
			return nil, err
		}
	}

	queries := make(map[string]*Query)
	for _, topic := range topics {
		relevant, err := readIDSet(filepath.Join(gtDir, topic+".txt"))
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation,
				fmt.Sprintf("reading ground truth for topic %q", topic), err)
		}

		seeds, err := readIDList(filepath.Join(queryDir, topic+".txt"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation,
				fmt.Sprintf("reading query list for topic %q", topic), err)
		}

		for _, seed := range seeds {
			q := &Query{
				ID:       fmt.Sprintf("%s/%d", topic, seed),
				Topic:    topic,
				ImgID:    seed,
				Relevant: relevant,
				Ignore:   ignore,
			}
			queries[q.ID] = q
		}
	}

	if len(queries) == 0 {
		return nil, errors.ValidationError("no queries found").
			WithDetail("gt_dir", gtDir).
			WithDetail("query_dir", queryDir)
	}

	return queries, nil
}

// SortedIDs returns the query IDs in lexicographic order. All aggregation
// iterates queries in this order so results are reproducible.
func SortedIDs(queries map[string]*Query) []string {
	ids := make([]string, 0, len(queries))
	for id := range queries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func listTopics(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading ground-truth directory", err)
	}

	var topics []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		topics = append(topics, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(topics)
	return topics, nil
}

func readIDSet(path string) (map[int64]struct{}, error) {
	ids, err := readIDList(path)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func readIDList(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid image ID %q in %s: %w", line, path, err)
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// loadDuplicates reads a duplicates file. Each line is a group of mutually
// near-duplicate image IDs; the first member of a group is kept as canonical
// and the rest are ignored during scoring.
func loadDuplicates(path string) (map[int64]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading duplicates file", err)
	}
	defer f.Close()

	ignore := make(map[int64]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		for _, field := range fields[1:] {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, errors.Wrap(errors.CodeValidation,
					fmt.Sprintf("invalid image ID %q in duplicates file", field), err)
			}
			ignore[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "reading duplicates file", err)
	}
	return ignore, nil
}
