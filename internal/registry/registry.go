// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package registry maps entity names to repository capability handles.
// The mapping is built once per process from configuration and passed
// explicitly to the commands that need it.
package registry

import (
	"sort"
	"strings"

	"onoffice/cli/internal/crm"
	clierrors "onoffice/cli/internal/errors"
)

// Opener returns the capability handle for a configured resource type.
type Opener func(resource string) crm.Repository

type entry struct {
	resource string
	repo     crm.Repository
}

// Registry resolves case-insensitive entity names to repositories.
type Registry struct {
	entries map[string]entry
	names   []string
}

// Normalize returns the form entity names are compared in.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// New builds a registry from an entity → resource type mapping, opening one
// repository per entity.
func New(entities map[string]string, open Opener) *Registry {
	r := &Registry{entries: make(map[string]entry, len(entities))}
	for name, resource := range entities {
		key := Normalize(name)
		if key == "" {
			continue
		}
		r.entries[key] = entry{resource: resource, repo: open(resource)}
	}
	r.names = make([]string, 0, len(r.entries))
	for name := range r.entries {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// IsValid reports whether name is registered.
func (r *Registry) IsValid(name string) bool {
	_, ok := r.entries[Normalize(name)]
	return ok
}

// Resolve returns the repository for name.
func (r *Registry) Resolve(name string) (crm.Repository, error) {
	e, ok := r.entries[Normalize(name)]
	if !ok {
		return nil, clierrors.UnknownEntityError(name, r.Names())
	}
	return e.repo, nil
}

// Resource returns the configured resource type for name, or "" if unknown.
func (r *Registry) Resource(name string) string {
	return r.entries[Normalize(name)].resource
}

// Names returns all registered entity names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
