// Package labels defines the label conventions a shared container uses to
// remember which projects were merged into it.
package labels

import (
	"slices"
	"sort"
	"strings"
)

const (
	// Projects is the aggregate label listing every merged project.
	Projects = "projects"
	// StartupServices is the aggregate label listing the services terraform starts.
	StartupServices = "startup_services"

	projectPrefix = "dock."
	composePrefix = "compose."
)

// ProjectKey returns the label recording a project's config file.
func ProjectKey(project string) string {
	return projectPrefix + project
}

// ComposeKey returns the label recording a project's compose file.
func ComposeKey(project string) string {
	return composePrefix + project
}

// ComposeFiles returns the compose file of every project that contributed
// one, keyed by project name.
func ComposeFiles(labels map[string]string) map[string]string {
	files := map[string]string{}
	for key, value := range labels {
		project, ok := strings.CutPrefix(key, composePrefix)
		if !ok || project == "" || value == "" {
			continue
		}
		files[project] = value
	}
	return files
}

// ParseSet splits an aggregate label value into its members.
func ParseSet(value string) []string {
	return normalize(strings.Fields(value))
}

// FormatSet renders members as an aggregate label value.
func FormatSet(members []string) string {
	return strings.Join(normalize(members), " ")
}

// Union merges an aggregate label value with additional members.
func Union(value string, members ...string) string {
	return FormatSet(append(ParseSet(value), members...))
}

func normalize(members []string) []string {
	var out []string
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
