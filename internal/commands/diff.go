package commands

import (
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rgovind/neo/internal/message"
)

// fileUpdate builds write_file/update_file's typed CommandOutput
// (spec.md §3: `FileUpdate{name, message, diff}`), computing a unified
// diff against the file's prior contents the way `difflib.unified_diff`
// does in the original implementation — including for a newly created
// file, whose diff is an all-additions hunk against empty prior
// contents, matching `test_write_file.py`'s "create_new_file" case.
func fileUpdate(commandName, path, before, after string, created bool) message.FileUpdate {
	msg := "Updated"
	if created {
		msg = "Created"
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)

	return message.FileUpdate{Name: commandName, Message: msg, Diff: text}
}
