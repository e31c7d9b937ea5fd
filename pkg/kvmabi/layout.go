// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package kvmabi

import (
	"reflect"
)

// Field describes one member of a shared record.
type Field struct {
	Name   string  `yaml:"name"`
	Offset uintptr `yaml:"offset"`
	Size   uintptr `yaml:"size"`
}

// Layout describes a shared record.
type Layout struct {
	Name   string  `yaml:"name"`
	MSR    uint32  `yaml:"msr"`
	Size   uintptr `yaml:"size"`
	Fields []Field `yaml:"fields"`
}

func layoutOf(name string, msr uint32, v any) Layout {
	t := reflect.TypeOf(v)
	l := Layout{
		Name: name,
		MSR:  msr,
		Size: t.Size(),
	}

	for i := range t.NumField() {
		f := t.Field(i)
		l.Fields = append(l.Fields, Field{Name: f.Name, Offset: f.Offset, Size: f.Type.Size()})
	}

	return l
}

// Layouts returns the layout of every shared record.
func Layouts() []Layout {
	return []Layout{
		layoutOf("wall_clock", MSRWallClockNew, WallClock{}),
		layoutOf("vcpu_time_info", MSRSystemTimeNew, VCPUTimeInfo{}),
		layoutOf("steal_time", MSRStealTime, StealTime{}),
	}
}
