// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"reflect"
	"strings"
)

// ChangeSummary describes the result of comparing two AppConfigs.
type ChangeSummary struct {
	ChangedFields   []string // yaml paths of changed fields
	RestartRequired bool     // true if any changed field cannot be applied live
}

// hotReloadable lists the fields the running daemon applies without a restart.
var hotReloadable = map[string]struct{}{
	"logLevel": {},
}

// Diff compares two configurations field by field.
func Diff(old, next AppConfig) ChangeSummary {
	var s ChangeSummary
	s.compareStruct("", reflect.ValueOf(old), reflect.ValueOf(next))
	return s
}

func (s *ChangeSummary) compareStruct(prefix string, oldVal, nextVal reflect.Value) {
	t := oldVal.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if !f.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fieldPath := name
		if prefix != "" {
			fieldPath = prefix + "." + name
		}

		ov, nv := oldVal.Field(i), nextVal.Field(i)
		if ov.Kind() == reflect.Struct {
			s.compareStruct(fieldPath, ov, nv)
			continue
		}
		if !reflect.DeepEqual(ov.Interface(), nv.Interface()) {
			s.ChangedFields = append(s.ChangedFields, fieldPath)
			if _, ok := hotReloadable[fieldPath]; !ok {
				s.RestartRequired = true
			}
		}
	}
}
