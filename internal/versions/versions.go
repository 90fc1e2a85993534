// Package versions provides semantic version validation and ordering for
// project version slugs. Slugs that do not parse as semantic versions
// ("latest", "stable", branch names) sort after all semantic versions.
package versions

import (
	"fmt"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/docshost/docshost/internal/db/models"
)

// Validate validates that a version string is valid semantic versioning
func Validate(versionStr string) error {
	_, err := goversion.NewVersion(versionStr)
	if err != nil {
		return fmt.Errorf("invalid semantic version: %w", err)
	}
	return nil
}

// Compare compares two semantic versions.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func Compare(v1Str, v2Str string) (int, error) {
	v1, err := goversion.NewVersion(v1Str)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}

	v2, err := goversion.NewVersion(v2Str)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}

	return v1.Compare(v2), nil
}

// Sort orders project versions for display: semantic versions newest first,
// then non-semver slugs alphabetically. The slice is sorted in place.
func Sort(list []*models.ProjectVersion) {
	sort.SliceStable(list, func(i, j int) bool {
		vi, errI := goversion.NewVersion(list[i].Slug)
		vj, errJ := goversion.NewVersion(list[j].Slug)

		switch {
		case errI == nil && errJ == nil:
			return vi.GreaterThan(vj)
		case errI == nil:
			return true // semver before non-semver
		case errJ == nil:
			return false
		default:
			return strings.ToLower(list[i].Slug) < strings.ToLower(list[j].Slug)
		}
	})
}

// Latest returns the highest semantic version in the list, or nil when the
// list contains no parseable semantic versions.
func Latest(list []*models.ProjectVersion) *models.ProjectVersion {
	var best *models.ProjectVersion
	var bestVersion *goversion.Version

	for _, v := range list {
		parsed, err := goversion.NewVersion(v.Slug)
		if err != nil {
			continue
		}
		if bestVersion == nil || parsed.GreaterThan(bestVersion) {
			best = v
			bestVersion = parsed
		}
	}

	return best
}
