// Package catalog loads profiles, gig listings and application logs from local YAML or
// JSON files.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/tracking"
	"github.com/spigell/gig-assistant/internal/validate"
)

// Profile is a freelancer profile file: the scored fields plus presentation details.
type Profile struct {
	Name        string   `json:"name,omitempty" yaml:"name"`
	Title       string   `json:"title,omitempty" yaml:"title"`
	SuccessRate *float64 `json:"success_rate,omitempty" yaml:"success_rate" validate:"omitempty,gte=0,lte=100"`

	fit.Profile `yaml:",inline"`
}

// LoadProfile reads and validates a profile file.
func LoadProfile(path string) (*Profile, error) {
	const op = "load_profile"

	root, err := readDocument(op, path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := root.Decode(&p); err != nil {
		return nil, apperr.E(op, apperr.InvalidProfile, path, fmt.Errorf("decode: %w", err))
	}

	if err := fit.ValidateProfile(op, p.Profile); err != nil {
		return nil, err
	}
	if err := validate.Struct(op, apperr.InvalidProfile, p); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadGigs reads a gig listing. The file holds either a sequence of gigs or a mapping with
// a gigs key. Gigs without an id get gig_NNN by position.
func LoadGigs(path string) ([]fit.Gig, error) {
	const op = "load_gigs"

	gigs, err := loadList[fit.Gig](op, apperr.InvalidGig, path, "gigs")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(gigs))
	for i := range gigs {
		if strings.TrimSpace(gigs[i].ID) == "" {
			gigs[i].ID = fmt.Sprintf("gig_%03d", i+1)
		}
		if prev, ok := seen[gigs[i].ID]; ok {
			return nil, apperr.Errorf(op, apperr.InvalidGig, fmt.Sprintf("gigs[%d].id", i),
				"duplicate id %q, first used by gigs[%d]", gigs[i].ID, prev)
		}
		seen[gigs[i].ID] = i

		if err := fit.ValidateGig(op, gigs[i]); err != nil {
			return nil, apperr.Qualify(err, fmt.Sprintf("gigs[%d]", i))
		}
	}

	return gigs, nil
}

// LoadApplications reads an application log: a sequence or a mapping with an
// applications key.
func LoadApplications(path string) ([]tracking.Application, error) {
	return loadList[tracking.Application]("load_applications", apperr.InvalidInput, path, "applications")
}

func loadList[T any](op string, kind apperr.Kind, path, key string) ([]T, error) {
	root, err := readDocument(op, path)
	if err != nil {
		return nil, err
	}

	node := root
	if node.Kind == yaml.MappingNode {
		node = nil
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				node = root.Content[i+1]
				break
			}
		}
		if node == nil {
			return nil, apperr.Errorf(op, kind, path, "no %q list found", key)
		}
	}

	var items []T
	if err := node.Decode(&items); err != nil {
		return nil, apperr.E(op, kind, path, fmt.Errorf("decode %s: %w", key, err))
	}
	return items, nil
}

// readDocument parses path and returns its top level node. JSON parses as YAML.
func readDocument(op, path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.E(op, apperr.NotFound, path, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return nil, apperr.E(op, apperr.PermissionDenied, path, err)
	}
	if err != nil {
		return nil, apperr.E(op, apperr.Internal, path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperr.E(op, apperr.InvalidInput, path, fmt.Errorf("parse: %w", err))
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, apperr.Errorf(op, apperr.InvalidInput, path, "file is empty")
	}

	return doc.Content[0], nil
}
