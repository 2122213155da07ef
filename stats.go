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
	"sync/atomic"
)

type deviceStats struct {
	buffers        atomic.Int64
	textures       atomic.Int64
	descriptorSets atomic.Int64
	pipelines      atomic.Int64
	commandLists   atomic.Int64
	submissions    atomic.Int64
	presents       atomic.Int64
}

func (s *deviceStats) snapshot() map[string]int64 {
	return map[string]int64{
		"Buffers":        s.buffers.Load(),
		"Textures":       s.textures.Load(),
		"DescriptorSets": s.descriptorSets.Load(),
		"Pipelines":      s.pipelines.Load(),
		"CommandLists":   s.commandLists.Load(),
		"Submissions":    s.submissions.Load(),
		"Presents":       s.presents.Load(),
	}
}

/*
BuildStatsString returns a JSON document with the live object counts of the
device. When detailed is set the descriptor set layout and clear pipeline caches
are included as well.
*/
func (d *Device) BuildStatsString(detailed bool) string {
	d.noCopy.Check()

	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Device\": %q,", d.properties.ID.String()))
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", d.properties.Name))

	{
		buff.WriteString("\"Counters\": {")
		err := mapRunFuncSorted(d.stats.snapshot(), func(k string, v int64) error {
			buff.WriteString(fmt.Sprintf("%q: %d,", k, v))
			return nil
		})
		if err == nil {
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("},")
	}

	buff.WriteString(fmt.Sprintf("\"ClearPipelines\": %d,", d.clearPipelines.len()))

	if detailed {
		buff.WriteString(fmt.Sprintf("\"DescriptorSetLayoutCache\": %s,", jsonString(&d.descriptorSetLayouts)))
		buff.WriteString(fmt.Sprintf("\"ClearPipelineCache\": %s,", jsonString(&d.clearPipelines)))
	}

	buff.Truncate(buff.Len() - 1)
	buff.WriteString("}")
	return buff.String()
}
