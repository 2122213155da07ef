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
	"io"

	"github.com/pelletier/go-toml/v2"
	"goarrg.com/debug"
	"goarrg.com/gmath"
)

type Config struct {
	// PreferredDevice is matched against the native device names, the default
	// device is used when empty or not found.
	PreferredDevice string `toml:"preferred_device"`
	MaxFrameLatency uint32 `toml:"max_frame_latency"`

	// WarmClearFormats lists color formats whose single attachment clear
	// pipelines are compiled during NewDevice.
	WarmClearFormats     []Format `toml:"warm_clear_formats"`
	WarmClearSampleCount uint32   `toml:"warm_clear_sample_count"`
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"PreferredDevice\": %q,", c.PreferredDevice))
	buff.WriteString(fmt.Sprintf("\"MaxFrameLatency\": %d,", c.MaxFrameLatency))

	{
		buff.WriteString("\"WarmClearFormats\": [")
		for _, f := range c.WarmClearFormats {
			buff.WriteString(fmt.Sprintf("%q,", f.String()))
		}
		if len(c.WarmClearFormats) > 0 {
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("],")
	}
	buff.WriteString(fmt.Sprintf("\"WarmClearSampleCount\": %d,", c.WarmClearSampleCount))

	buff.Truncate(buff.Len() - 1)
	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *Config) validate() {
	if c.MaxFrameLatency == 0 {
		c.MaxFrameLatency = 2
	} else if !gmath.InRange(c.MaxFrameLatency, 1, MaxDrawables) {
		abort("Config.MaxFrameLatency is outside of valid range [1, %d]", MaxDrawables)
	}
	if c.WarmClearSampleCount == 0 {
		c.WarmClearSampleCount = 1
	} else if !gmath.InRange(c.WarmClearSampleCount, 1, 64) || (c.WarmClearSampleCount&(c.WarmClearSampleCount-1)) != 0 {
		abort("Config.WarmClearSampleCount must be a power of two in range [1, 64]")
	}
	for _, f := range c.WarmClearFormats {
		if !f.Supported() || f == FORMAT_UNKNOWN || f.IsTypeless() || FormatIsDepth(f) {
			abort("Config.WarmClearFormats contains invalid color format: %s", f)
		}
	}
}

// LoadConfig decodes a TOML document into a Config, unknown keys are an error.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return Config{}, debug.ErrorWrapf(err, "Failed to decode config")
	}
	return c, nil
}

type config struct {
	maxFrameLatency uint32
}

func (c *config) use(user Config) {
	c.maxFrameLatency = user.MaxFrameLatency
}
