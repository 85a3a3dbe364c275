// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"regexp"
	"strings"
)

// keyValuePattern matches a key=value line. A line that does not match ends
// the current section.
var keyValuePattern = regexp.MustCompile(`^[^=]+=.+$`)

// sectionPattern matches a [name] section header.
var sectionPattern = regexp.MustCompile(`^\[(.+)\]$`)

// ParseServiceDefinition returns the key/value pairs of section name.
//
// Only the first [name] header counts. The section is the contiguous run of
// key=value lines directly after it. Each line is split on "=" and the value
// is the text between the first and second "=", so "k=a=b" yields "a".
// The result is empty when the section is missing or holds no pairs.
func ParseServiceDefinition(lines []string, name string) ServiceDefinition {
	header := "[" + name + "]"
	def := ServiceDefinition{}

	start := -1
	for i, line := range lines {
		if trimCR(line) == header {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return def
	}

	for _, line := range lines[start:] {
		line = trimCR(line)
		if !keyValuePattern.MatchString(line) {
			break
		}
		fields := strings.Split(line, "=")
		def[fields[0]] = fields[1]
	}
	return def
}

// ParseServiceNames returns the section names in file order, without duplicates.
func ParseServiceNames(lines []string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, line := range lines {
		m := sectionPattern.FindStringSubmatch(trimCR(line))
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}
