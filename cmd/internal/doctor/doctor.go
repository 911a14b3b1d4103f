package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

type FileRequirement struct {
	Path   string
	Reason string
	Check  func(r io.Reader) error
}

// Check is a named diagnostic. Run returns a short detail shown on success.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

type Reporter interface {
	Table(columns []string, rows [][]string)
	Error(msg string)
}

func CheckFiles(dir string, reqs []FileRequirement) error {
	for _, req := range reqs {
		fullPath := req.Path
		if !filepath.IsAbs(fullPath) {
			fullPath = filepath.Join(dir, req.Path)
		}

		if req.Check != nil {
			fl, err := os.Open(fullPath)
			if err != nil {
				return errors.Newf("required file %q not found in %s (%s)", req.Path, dir, req.Reason)
			}

			checkErr := req.Check(fl)
			fl.Close()

			if checkErr != nil {
				return errors.Wrapf(checkErr, "file %q in %s", req.Path, dir)
			}
		} else {
			if _, err := os.Stat(fullPath); err != nil {
				return errors.Newf("required file %q not found in %s (%s)", req.Path, dir, req.Reason)
			}
		}
	}

	return nil
}

// FilesCheck turns file requirements into one check per file.
func FilesCheck(dir string, reqs []FileRequirement) []Check {
	checks := make([]Check, 0, len(reqs))
	for _, req := range reqs {
		checks = append(checks, Check{
			Name: req.Path,
			Run: func(context.Context) (string, error) {
				return req.Reason, CheckFiles(dir, []FileRequirement{req})
			},
		})
	}
	return checks
}

// Run executes every check and reports each outcome; it fails if any check failed.
func Run(ctx context.Context, checks []Check, r Reporter) error {
	var errs []string

	for _, chk := range checks {
		detail, err := chk.Run(ctx)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", chk.Name, err)
			r.Error("✗ " + msg)
			errs = append(errs, msg)
			continue
		}
		r.Table(nil, [][]string{{"✓", chk.Name, detail}})
	}

	if len(errs) > 0 {
		return errors.Newf("doctor checks failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
