/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mxr

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type SpecConstant struct {
	Index uint32
	Value uint32
}

type ShaderDesc struct {
	// Source is MSL source code and Library a compiled metallib, exactly one
	// of them must be set.
	Source     string
	Library    []byte
	EntryPoint string
}

type Shader struct {
	noCopy     util.NoCopy
	id         string
	name       string
	entryPoint string
	library    mtl.Library
}

/*
NewShader creates the native library for the shader and checks that the entry
point exists in it. Errors from the native compiler are returned as is, wrapped
with the entry point name.
*/
func (d *Device) NewShader(desc ShaderDesc) (*Shader, error) {
	d.noCopy.Check()

	if desc.EntryPoint == "" {
		return nil, debug.Errorf("ShaderDesc.EntryPoint must not be empty")
	}
	if (desc.Source == "") == (len(desc.Library) == 0) {
		return nil, debug.Errorf("Exactly one of ShaderDesc.Source and ShaderDesc.Library must be set")
	}

	var library mtl.Library
	var err error
	if desc.Source != "" {
		library, err = d.mtl.NewLibraryWithSource(desc.Source)
	} else {
		library, err = d.mtl.NewLibraryWithData(desc.Library)
	}
	if err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create library for %q", desc.EntryPoint)
	}

	function, err := library.NewFunction(desc.EntryPoint)
	if err != nil {
		library.Release()
		return nil, debug.ErrorWrapf(err, "Failed to find entry point %q", desc.EntryPoint)
	}
	function.Release()

	s := Shader{
		id:         genID(uuid.New(), desc.EntryPoint),
		name:       desc.EntryPoint,
		entryPoint: desc.EntryPoint,
		library:    library,
	}
	s.noCopy.Init()
	return &s, nil
}

func (s *Shader) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"id\": %q,", s.id))
	buff.WriteString(fmt.Sprintf("\"name\": %q,", s.name))
	buff.WriteString(fmt.Sprintf("\"entryPoint\": %q", s.entryPoint))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

// SetName sets the label used for every pipeline created from the shader.
func (s *Shader) SetName(name string) {
	s.noCopy.Check()
	s.name = name
}

func (s *Shader) EntryPoint() string {
	s.noCopy.Check()
	return s.entryPoint
}

func (s *Shader) createFunction(specConstants []SpecConstant) (mtl.Function, error) {
	s.noCopy.Check()
	constants := make([]mtl.FunctionConstantValue, len(specConstants))
	for i, c := range specConstants {
		constants[i] = mtl.FunctionConstantValue{Index: uint64(c.Index), Value: c.Value}
	}
	return s.library.NewFunctionWithConstants(s.entryPoint, constants)
}

func (s *Shader) Destroy() {
	if s == nil {
		return
	}
	s.noCopy.Check()
	s.library.Release()
	s.noCopy.Close()
}
