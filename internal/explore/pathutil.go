package explore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolveWithin joins rel onto workDir and rejects any result that
// escapes it, the same confinement rule internal/commands applies to
// read_file/write_file, so the read-only explore tools can't be used
// to walk outside the workspace via "../../".
func resolveWithin(workDir, rel string) (string, error) {
	abs := rel
	if !filepath.IsAbs(rel) {
		abs = filepath.Join(workDir, rel)
	}
	abs = filepath.Clean(abs)
	workDir = filepath.Clean(workDir)
	if abs != workDir && !strings.HasPrefix(abs, workDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working directory: %s", rel)
	}
	return abs, nil
}
