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


package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"goarrg.com/asset"
	"goarrg.com/debug"
	"goarrg.com/rhi/mxr"
	"goarrg.com/rhi/mxr/mtl/headless"

	"golang.org/x/tools/go/packages"
)

var flags flag.FlagSet

type macros []string

func (m *macros) UnmarshalText(data []byte) error {
	str := string(data)
	i := strings.Index(str, "=")
	switch {
	case i == 0:
		return debug.Errorf("Macro not in the format \"macro=value\"")
	case i < 0:
		*m = append(*m, fmt.Sprintf("#define %s", str))
	default:
		*m = append(*m, fmt.Sprintf("#define %s %s", str[:i], str[i+1:]))
	}
	return nil
}

func (m macros) MarshalText() (text []byte, err error) {
	return []byte(strings.Join(m, "\n")), nil
}

type generator uint32

const (
	generatorJSON generator = iota
	generatorGO
)

func (g *generator) UnmarshalText(data []byte) error {
	switch string(data) {
	case "json":
		*g = generatorJSON
	case "go":
		*g = generatorGO
	default:
		return debug.Errorf("Invalid value: %q", data)
	}
	return nil
}

func (g generator) MarshalText() (text []byte, err error) {
	switch g {
	case generatorJSON:
		return ([]byte)("json"), nil
	case generatorGO:
		return ([]byte)("go"), nil
	default:
		return nil, debug.Errorf("Invalid value: %d", g)
	}
}

type rangeManifest struct {
	Binding uint32                  `toml:"binding"`
	Count   uint32                  `toml:"count"`
	Type    mxr.DescriptorRangeType `toml:"type"`
}

type setManifest struct {
	Ranges               []rangeManifest `toml:"ranges"`
	LastRangeIsBoundless bool            `toml:"last_range_is_boundless"`
	BoundlessRangeSize   uint32          `toml:"boundless_range_size"`
}

type pushConstantManifest struct {
	Binding uint32          `toml:"binding"`
	Set     uint32          `toml:"set"`
	Offset  uint32          `toml:"offset"`
	Size    uint32          `toml:"size"`
	Stages  mxr.ShaderStage `toml:"stages"`
}

// manifest describes one shader source and the pipeline layout its entry points are used with.
type manifest struct {
	Source         string                 `toml:"source"`
	EntryPoints    []string               `toml:"entry_points"`
	PushConstants  []pushConstantManifest `toml:"push_constants"`
	DescriptorSets []setManifest          `toml:"descriptor_sets"`
}

func (m *manifest) layout() (mxr.PipelineLayoutDesc, []uint32) {
	desc := mxr.PipelineLayoutDesc{}
	boundless := []uint32{}
	for _, p := range m.PushConstants {
		desc.PushConstantRanges = append(desc.PushConstantRanges, mxr.PushConstantRange(p))
	}
	for _, s := range m.DescriptorSets {
		set := mxr.DescriptorSetLayoutDesc{LastRangeIsBoundless: s.LastRangeIsBoundless}
		for _, r := range s.Ranges {
			set.Ranges = append(set.Ranges, mxr.DescriptorRange{Binding: r.Binding, Count: r.Count, Type: r.Type})
		}
		desc.DescriptorSetLayouts = append(desc.DescriptorSetLayouts, set)
		boundless = append(boundless, s.BoundlessRangeSize)
	}
	return desc, boundless
}

type metadata struct {
	Name             string
	Source           string `json:",omitempty"`
	EntryPoints      []string
	Layout           mxr.PipelineLayoutDesc
	DescriptorCounts []uint32
}

func main() {
	debug.SetLevel(debug.LogLevelWarn)

	flags.Usage = help
	flags.Init("", flag.ExitOnError)

	v := flags.Bool("v", false, "Verbose - Print high level tasks")
	vv := flags.Bool("vv", false, "Very Verbose - Print everything")

	dir := flags.String("dir", ".", "Sets the directory for the purposes of <file> and the manifest's source resolution.")
	outDir := flags.String("out-dir", ".", "Sets the output directory.")

	defines := macros{}
	flags.TextVar(&defines, "D", macros{}, "Define macro in the format \"macro=value\".")

	g := generator(0)
	flags.TextVar(&g, "generator", generatorJSON, "Sets the generator to use when outputting metadata.\n"+
		"Valid values are \"json\" and \"go\".")

	skipSource := flags.Bool("skip-source", false, "Skips embedding the preprocessed MSL source in the output.")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	if *v {
		debug.SetLevel(debug.LogLevelInfo)
	} else if *vv {
		debug.SetLevel(debug.LogLevelVerbose)
	}

	args := flags.Args()
	if len(args) == 0 {
		debug.EPrintf("No manifest provided.")
		help()
		os.Exit(2)
	} else if len(args) > 1 {
		debug.EPrintf("mxrc can only process one manifest at a time.")
		help()
		os.Exit(2)
	}

	fsys := asset.DirFS(*dir)
	name := args[0]

	debug.IPrintf("Loading manifest")
	var m manifest
	if err := toml.NewDecoder(strings.NewReader(readFile(fsys, name))).DisallowUnknownFields().Decode(&m); err != nil {
		panic(debug.ErrorWrapf(err, "Failed to decode manifest %q", name))
	}
	if m.Source == "" || len(m.EntryPoints) == 0 {
		panic(debug.Errorf("Manifest %q must name a source and at least one entry point", name))
	}

	source := readFile(fsys, m.Source)
	if len(defines) > 0 {
		source = strings.Join(defines, "\n") + "\n" + source
	}

	debug.IPrintf("Validating shader")
	meta := validate(&m, source)
	meta.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if !*skipSource {
		meta.Source = source
	}

	err = os.MkdirAll(*outDir, 0o755)
	if err != nil {
		panic(err)
	}

	switch g {
	case generatorJSON:
		genJson(*outDir, meta)
	case generatorGO:
		genGo(*outDir, meta)
	}
}

func readFile(fsys *asset.FileSystem, name string) string {
	f, err := fsys.Open(name)
	if err != nil {
		panic(debug.ErrorWrapf(err, "Failed to open %q", name))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		panic(debug.ErrorWrapf(err, "Failed to read %q", name))
	}
	return string(data)
}

// validate builds every object the manifest describes on a headless device so
// invalid layouts and missing entry points fail here instead of at runtime.
func validate(m *manifest, source string) metadata {
	d, err := mxr.NewDevice(headless.NewDriver(), mxr.Config{})
	if err != nil {
		panic(err)
	}
	defer d.Destroy()

	for _, e := range m.EntryPoints {
		s, err := d.NewShader(mxr.ShaderDesc{Source: source, EntryPoint: e})
		if err != nil {
			panic(debug.ErrorWrapf(err, "Failed to create shader %q", e))
		}
		s.Destroy()
	}

	desc, boundless := m.layout()
	d.NewPipelineLayout(desc).Destroy()

	meta := metadata{
		EntryPoints: m.EntryPoints,
		Layout:      desc,
	}
	for i, l := range desc.DescriptorSetLayouts {
		set := d.NewDescriptorSet(mxr.DescriptorSetDesc{Layout: l, BoundlessRangeSize: boundless[i]})
		meta.DescriptorCounts = append(meta.DescriptorCounts, set.DescriptorCount())
		set.Destroy()
	}
	return meta
}

func help() {
	fmt.Fprintf(os.Stderr, "mxrc validates a MSL shader and the pipeline layout it is used with offline, then outputs\n"+
		"the layout as metadata so it does not need to be written by hand.\n"+
		"\nThe manifest is a TOML file naming the source file, its entry points, push constant ranges and descriptor sets.\n"+
		"Validation runs against a headless device, so no GPU is needed.\n"+
		"\n")
	args := ""
	flags.VisitAll(func(f *flag.Flag) {
		n, u := flag.UnquoteUsage(f)
		if f.DefValue != "" {
			u += "\n\nDefaults to \"" + f.DefValue + "\"."
		}
		args += "\t-" + f.Name + " " + n + "\n\t\t" + strings.ReplaceAll(strings.TrimSpace(u), "\n", "\n\t\t") + "\n"
	})
	fmt.Fprintf(os.Stderr, "Usage:\n\t%s [arguments] <manifest>\n\nArguments:\n%s", filepath.Base(os.Args[0]), args)
}

func genJson(dir string, meta metadata) {
	j, err := json.Marshal(meta)
	if err != nil {
		panic(err)
	}

	jsonFile := filepath.Join(dir, meta.Name+".json")
	debug.IPrintf("Writing metadata to: %q", jsonFile)
	err = os.WriteFile(jsonFile, j, 0o655)
	if err != nil {
		panic(err)
	}
}

func funcName(name string) string {
	sb := strings.Builder{}
	sb.Grow(len(name))
	for _, r := range filepath.ToSlash(name) {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			sb.WriteRune(r)
		}
		if r == '/' || r == '.' || r == '-' {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func genGo(dir string, meta metadata) {
	filename := filepath.Join(dir, "zmxrc_"+meta.Name+".go")
	debug.IPrintf("Writing metadata to: %q", filename)
	fOut, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer fOut.Close()

	{
		args := ""
		for _, arg := range os.Args[1:] {
			args += arg + " "
		}
		fmt.Fprintf(fOut, "// go run goarrg.com/rhi/mxr/cmd/mxrc %s\n", args)
		fmt.Fprintf(fOut, "// Code generated by the command above; DO NOT EDIT.\n\n")
	}

	{
		p, err := packages.Load(&packages.Config{Mode: packages.NeedName}, dir)
		if err != nil {
			panic(debug.ErrorWrapf(err, "Failed to load package at %q", dir))
		}
		if len(p) == 0 {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(dir))
		} else if p[0].Name != "" {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(p[0].Name))
		} else {
			fmt.Fprintf(fOut, "package %s\n\n", filepath.Base(p[0].PkgPath))
		}

		fmt.Fprintf(fOut, "import(\n")
		fmt.Fprintf(fOut, "\t\"goarrg.com/rhi/mxr\"\n")
		fmt.Fprintf(fOut, ")\n\n")
	}

	{
		fmt.Fprintf(fOut, "func mxrcLoad_%s() (source string, entryPoints []string, layout mxr.PipelineLayoutDesc, descriptorCounts []uint32) {\n", funcName(meta.Name))
		fmt.Fprintf(fOut, "\tsource = %#v\n", meta.Source)
		fmt.Fprintf(fOut, "\tentryPoints = %#v\n", meta.EntryPoints)
		fmt.Fprintf(fOut, "\tlayout = %#v\n", meta.Layout)
		fmt.Fprintf(fOut, "\tdescriptorCounts = %#v\n", meta.DescriptorCounts)
		fmt.Fprintf(fOut, "\treturn\n")
		fmt.Fprintf(fOut, "}\n")
	}
}
