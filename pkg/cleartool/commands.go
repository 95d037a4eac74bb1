// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cleartool

import "strconv"

// Output formats requested from the tool. The parsers in pkg/parse depend on them.
const (
	ActivityFormat = "%n <-> %[locked]p <-> %[headline]p <-> %[view]p\\n"
	DescribeFormat = "%Xn --> %[activity]p\\n"

	PredecessorFormat = "%PVn"
	VersionFormat     = "%Vn"
)

// VersionSeparator joins an element path and a version in an extended path name.
const VersionSeparator = "@@"

// ExtendedPath returns the version-extended name path@@version.
func ExtendedPath(path, version string) string {
	return path + VersionSeparator + version
}

// commentArgs returns -c <comment>, or -nc for an empty comment.
func commentArgs(comment string) []string {
	if comment == "" {
		return []string{"-nc"}
	}
	return []string{"-c", comment}
}

func join(head []string, tail ...string) []string {
	out := make([]string, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// 📋 LsDirectory queries the status of each path without descending into directories.
func LsDirectory(paths ...string) []string {
	return join([]string{"ls", "-directory"}, paths...)
}

// LsHistory lists the version history of path; last <= 0 means no limit.
func LsHistory(path string, last int) []string {
	args := []string{"lshistory"}
	if last > 0 {
		args = append(args, "-last", strconv.Itoa(last))
	}
	return append(args, path)
}

// LsActivity lists the activities visible in view tag.
func LsActivity(viewTag string) []string {
	return []string{"lsactivity", "-view", viewTag, "-fmt", ActivityFormat}
}

// Describe prints "extended-name --> activity" for each path.
func Describe(paths ...string) []string {
	return join([]string{"describe", "-fmt", DescribeFormat}, paths...)
}

// DescribeVersion prints a single version field of path using format.
func DescribeVersion(path, format string) []string {
	return []string{"describe", "-fmt", format, path}
}

// LsView describes the view containing the working directory.
func LsView() []string {
	return []string{"lsview", "-cview", "-long"}
}

// LsCheckout recursively lists checkouts of the current view under root.
func LsCheckout(root string) []string {
	return []string{"lscheckout", "-cview", "-recurse", "-short", root}
}

// 📝 Checkout checks path out, reserved or unreserved.
func Checkout(path, comment string, reserved bool) []string {
	mode := "-unreserved"
	if reserved {
		mode = "-reserved"
	}
	return join(join([]string{"co", mode}, commentArgs(comment)...), path)
}

// CheckoutHijacked checks out a hijacked file keeping its local content as the checked-out version.
func CheckoutHijacked(path, comment string) []string {
	return join(join([]string{"co", "-unreserved", "-usehijack"}, commentArgs(comment)...), path)
}

// Checkin checks path in.
func Checkin(path, comment string) []string {
	return join(join([]string{"ci"}, commentArgs(comment)...), path)
}

// Uncheckout cancels a checkout, discarding (or keeping a copy of) local edits.
func Uncheckout(path string, keep bool) []string {
	mode := "-rm"
	if keep {
		mode = "-keep"
	}
	return []string{"unco", mode, path}
}

// Mkelem turns a view-private file into an element.
func Mkelem(path, comment string) []string {
	return join(join([]string{"mkelem"}, commentArgs(comment)...), path)
}

// Mkdir creates a directory element.
func Mkdir(path, comment string) []string {
	return join(join([]string{"mkdir"}, commentArgs(comment)...), path)
}

// Rmname removes the name of an element from its directory version.
func Rmname(path, comment string) []string {
	return join(join([]string{"rmname"}, commentArgs(comment)...), path)
}

// Move renames an element.
func Move(from, to, comment string) []string {
	return join(join([]string{"mv"}, commentArgs(comment)...), from, to)
}

// Update refreshes a snapshot view path from the VOB.
func Update(path string) []string {
	return []string{"update", "-force", path}
}

// UpdateOverwrite reloads path, replacing a hijacked file with the loaded version.
func UpdateOverwrite(path string) []string {
	return []string{"update", "-overwrite", "-force", path}
}

// Get copies a version of an element into a file.
func Get(to, extendedPath string) []string {
	return []string{"get", "-to", to, extendedPath}
}
