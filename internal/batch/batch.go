// Package batch pairs dataset files with their dependency files and
// normalizes the pairs concurrently.
package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Phaysik/database-normalizer/internal/filemanager"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

// DatasetExt is the extension of dataset files.
const DatasetExt = ".sql"

// Pair is one dataset file with its dependency file. Err is set when the
// dependency file is missing.
type Pair struct {
	Name           string
	SQLFile        string
	DependencyFile string
	Err            error
}

// Result is the outcome of processing one Pair.
type Result struct {
	Pair   Pair
	RunID  string
	Output string
	Tables int
	Err    error
}

// ProcessFunc normalizes one pair.
type ProcessFunc func(ctx context.Context, p Pair) Result

// Discover pairs every dataset in sqlDir with the file of the same stem and
// extension depExt in depDir.
func Discover(sqlDir, depDir, depExt string) ([]Pair, error) {
	if err := filemanager.ValidateDirectory(depDir); err != nil {
		return nil, err
	}
	datasets, err := filemanager.List(sqlDir, DatasetExt)
	if err != nil {
		return nil, err
	}

	if depExt != "" && !strings.HasPrefix(depExt, ".") {
		depExt = "." + depExt
	}

	pairs := make([]Pair, 0, len(datasets))
	for _, sqlFile := range datasets {
		stem := strings.TrimSuffix(filepath.Base(sqlFile), filepath.Ext(sqlFile))
		pair := Pair{
			Name:           stem,
			SQLFile:        sqlFile,
			DependencyFile: filepath.Join(depDir, stem+depExt),
		}
		if _, statErr := os.Stat(pair.DependencyFile); statErr != nil {
			pair.Err = errors.WrapError(fs.ErrNotExist, errors.CategoryFileSystem, filemanager.MsgFileNotExist).
				WithContext("path", pair.DependencyFile).
				WithContext("dataset", sqlFile).
				UserAction().
				Build()
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Run processes pairs with at most limit in flight and returns one Result
// per pair in input order. A failing pair does not stop the others; a
// cancelled context marks the pairs that had not started yet.
func Run(ctx context.Context, pairs []Pair, limit int, process ProcessFunc) []Result {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, pair := range pairs {
		if pair.Err != nil {
			results[i] = Result{Pair: pair, Err: pair.Err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Pair: pair, Err: err}
				return nil
			}
			res := process(gctx, pair)
			res.Pair = pair
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
