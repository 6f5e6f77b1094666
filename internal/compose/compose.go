// Package compose inspects a project's compose file on the host.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidYAML is returned when the compose file is not a YAML mapping.
	ErrInvalidYAML = errors.New("invalid compose YAML")
)

// Services loads the compose file at path and returns its service names,
// sorted.
func Services(ctx context.Context, path string, env map[string]string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal(content, &dict); err != nil || dict == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidYAML, path)
	}

	project, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		WorkingDir: filepath.Dir(path),
		ConfigFiles: []types.ConfigFile{
			{
				Filename: path,
				Content:  content,
				Config:   dict,
			},
		},
		Environment: types.Mapping(env),
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName(path), false)
		opts.SkipNormalization = true
		opts.SkipExtends = true
		opts.SkipResolveEnvironment = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load compose file %s: %w", path, err)
	}

	names := project.ServiceNames()
	sort.Strings(names)
	return names, nil
}

// Missing returns the declared services that available does not define.
func Missing(declared, available []string) []string {
	var missing []string
	for _, name := range declared {
		if !slices.Contains(available, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// projectName derives a compose project name from the file's directory.
func projectName(path string) string {
	name := strings.ToLower(filepath.Base(filepath.Dir(path)))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, name)
	if name == "" {
		return "dock"
	}
	return name
}
