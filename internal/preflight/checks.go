package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckJournalDir verifies the failure journal can be written. A directory
// that does not exist yet passes when its parent is accessible, since the
// journal creates it on first use.
func CheckJournalDir(path string) Result {
	const name = "Failure journal"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		parent := CheckDirectoryAccess(name, filepath.Dir(path))
		if !parent.Passed {
			return parent
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first failure)", path)}
	}
	return CheckDirectoryAccess(name, path)
}
