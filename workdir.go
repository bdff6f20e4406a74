// workdir.go: Working directory validation
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"strings"

	"github.com/agilira/go-errors"
)

// SetWorkDir validates and stores the working directory.
//
// Trailing slashes are removed (a lone "/" is kept). The path must exist
// and be a directory; otherwise the previous value stays in effect and an
// error with code ErrCodeWorkDirInvalid is returned.
func (r *Registry) SetWorkDir(path string) error {
	if path == "" {
		return errors.New(ErrCodeWorkDirInvalid, "empty work directory - directive ignored")
	}

	dir := strings.TrimRight(path, "/")
	if dir == "" {
		dir = "/"
	}
	if dir != path {
		r.report(errors.New(ErrCodeWorkDirInvalid, "trailing slashes removed").
			WithContext("new_value", dir), "workdirectory")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(err, ErrCodeWorkDirInvalid, "work directory can not be accessed - directive ignored").
			WithContext("path", dir)
	}
	if !info.IsDir() {
		return errors.New(ErrCodeWorkDirInvalid, "work directory is not a directory - directive ignored").
			WithContext("path", dir)
	}

	r.changed("workdirectory", r.s.workDir.Set(dir), dir)
	return nil
}
